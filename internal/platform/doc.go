// Package platform содержит клиентов платформ публикации.
//
// Цикл доставки видит платформу только через результат её вызова, поэтому
// клиенты сводят все ошибки к единой таксономии:
//   - ErrNotMember   — источник недоступен боту/токену; единственная ошибка,
//     при которой forward заменяется на copy;
//   - ErrRateLimited — платформа ограничила частоту запросов;
//   - ErrTransient   — сетевая/временная ошибка;
//   - всё остальное  — прочие ошибки платформы.
//
// Автоматических повторов для RateLimited/Transient в этой версии нет.
//
// Структура:
//   - telegram.go — клиент Telegram Bot API (forward/copy/скачивание файлов)
//   - vk.go       — REST-клиент VK API (wall.post, groups.get, загрузка фото)
package platform
