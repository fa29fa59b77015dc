package pricing

import "github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"

// DBExecutor интерфейс исполнителя запросов
type DBExecutor = dbmetrics.DBExecutor
