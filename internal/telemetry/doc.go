// Package telemetry обеспечивает наблюдаемость системы.
//
// Логирование — structured logging через slog, единый формат для всех
// бинарников. Prometheus-метрики объявляются в пакетах, которым они
// принадлежат, и экспортируются на /metrics endpoint.
package telemetry
