// Package dispatcher реализует цикл публикации запланированных постов.
//
// Каждый тик диспетчер выбирает посты со статусом SCHEDULED, у которых
// наступило время публикации, захватывает их CAS-переходом в DISPATCHING
// и доставляет в каждую цель отдельно. Итоговый статус поста сводится из
// результатов доставок: SENT, только если доставлены все цели.
//
// Захват через CAS делает конкурентный запуск нескольких экземпляров
// безопасным: пост публикуется ровно одним из них. Поверх этого работает
// advisory-lock лидерство — не-лидеры пропускают тики целиком.
//
// Повторных попыток нет: любой отказ платформы, включая rate limit и
// сетевые ошибки, финализирует доставку как FAILED. Единственное
// исключение — недоступность источника пересылки в Telegram, при которой
// forward заменяется на copy в рамках того же тика.
package dispatcher
