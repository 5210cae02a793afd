// Package telemetry — логирование и метрики dagrun.
//
// Логгер настраивается переменными LOG_LEVEL и LOG_FORMAT;
// WithExecutionID и WithNodeID добавляют к записям идентификаторы
// execution и узла. Метрики dispatch, выполнения узлов и HTTP
// регистрируются в реестре Prometheus по умолчанию и отдаются
// на /metrics API и worker.
package telemetry
