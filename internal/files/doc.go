// Package files owns everything the service does on disk.
//
// Workspace: a private temporary directory per request, removed by Close on
// every exit path.
//
// ExtractZip: unpacks an uploaded archive into a workspace, refusing entries
// that would land outside it and enforcing entry count and size limits.
//
// FindReport: walks an extracted tree for the specialization report CSV.
//
// OutputStore: keeps cleaned reports under <output_dir>/<job-id>/ so they
// can be downloaded later, and Reap removes job directories past retention.
//
// Example usage:
//
//	ws, err := files.NewWorkspace(paths.WorkDir, logger)
//	if err != nil {
//	    return err
//	}
//	defer ws.Close()
//
//	if _, err := files.ExtractZip(ctx, archive, ws.Path("extracted"), limits); err != nil {
//	    return err
//	}
//	report, err := files.FindReport(ws.Path("extracted"))
package files
