// Package shared groups helpers that belong to no single layer. Its only
// subpackage, testutil, holds fixtures and log assertions for tests.
package shared
