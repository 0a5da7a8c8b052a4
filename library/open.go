package library

import (
	"fmt"
	"log/slog"

	"library-catalog/config"
)

// OpenStore returns the Store backend named by sc.Backend.
func OpenStore(sc config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch sc.Backend {
	case config.BackendSQLite:
		return NewDatabase(sc.DatabaseFile, logger)
	case config.BackendJSON:
		return NewFileStore(sc.BooksFile, sc.UsersFile, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}
