package api

// CleanResponse is the JSON body returned by POST /api/clean
type CleanResponse struct {
	Message         string     `json:"message"`
	JobID           string     `json:"job_id"`
	CleanedCSV      string     `json:"cleaned_csv"`
	DownloadURL     string     `json:"download_url"`
	SourceFile      string     `json:"source_file"`
	CompletedFilter string     `json:"completed_filter"`
	Format          string     `json:"format"`
	RowsBefore      int        `json:"rows_before_cleaning"`
	RowsAfter       int        `json:"rows_after_cleaning"`
	MaleCompleted   *int       `json:"male_completed"`
	FemaleCompleted *int       `json:"female_completed"`
	Exclusions      Exclusions `json:"exclusions"`
	Columns         []string   `json:"columns"`
}

// Exclusions counts the input rows left out of the cleaned report, by reason
type Exclusions struct {
	RemovedFromProgram int `json:"removed_from_program,omitempty"`
	NotCompleted       int `json:"not_completed,omitempty"`
	Completed          int `json:"completed,omitempty"`
	CompletedElsewhere int `json:"completed_elsewhere,omitempty"`
	DuplicateEmail     int `json:"duplicate_email,omitempty"`
}

// CleanedMessage is the message of a successful clean response
const CleanedMessage = "Zip extracted and cleaned CSV saved"
