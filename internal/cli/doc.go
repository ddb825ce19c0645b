// Package cli реализует инструмент командной строки Postomat.
//
// CLI — клиентская утилита для административного API. Работает через
// HTTP и не импортирует внутренние пакеты системы: все типы ответов
// продублированы локально.
//
// Cobra-команды организованы по ресурсам:
//   - user: list, show, approve, reject, remove
//   - channel: list, refresh-vk
//   - post: list, show, cancel
//
// Каждая группа создаётся фабричной функцией (NewUserCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
//
// Данные выводятся в stdout (таблица либо JSON с флагом --json),
// сообщения — в stderr, что позволяет использовать pipe:
//
//	postomat-cli post list --json | jq .
package cli
