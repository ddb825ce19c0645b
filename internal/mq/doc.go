// Package mq публикует события жизненного цикла постов в RabbitMQ.
//
// Интеграция необязательная: без настроенного AMQP_URL бот работает
// полностью автономно, статусы постов живут только в БД. С подключённым
// брокером каждый финализированный пост порождает событие post.sent или
// post.failed — для внешних потребителей (уведомления, аналитика).
//
// Потребителей в составе системы нет, пакет содержит только publisher.
package mq
