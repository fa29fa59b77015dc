package slot

import "github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"

// DBExecutor интерфейс исполнителя запросов
type DBExecutor = dbmetrics.DBExecutor

type rowScanner interface {
	Scan(dest ...interface{}) error
}
