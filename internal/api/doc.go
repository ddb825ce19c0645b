// Package api реализует административный HTTP API.
//
// API обслуживает оператора, а не пользователей бота: просмотр и решение
// заявок на регистрацию, реестр целей, инспекция и отмена постов. Сетевой
// доступ ограничивается на уровне развёртывания, своей аутентификации у
// API нет.
//
// Структура:
//   - handler.go — Handler с зависимостями
//   - routes.go — маршруты (method pattern mux)
//   - dto.go — DTO запросов и ответов
//   - *_handler.go — обработчики по ресурсам
//   - response.go — JSON конверты ответов
//   - middleware.go — logging и recovery
package api
