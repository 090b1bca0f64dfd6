// Package docs Flood Exposure Viewer API.
//
// Сервис просмотра публичных объектов в зонах затопления по сценариям 2025 и 2050 годов.
// Каждая сессия держит свой выбор сценария, план слоев карты, камеру и легенду.
//
// Основные возможности:
// - Сессии просмотра: смена года, муниципалитета и видимых категорий
// - Легенда со сводкой по категориям и эталонными итогами
// - Выгрузка объектов в CSV, синхронно или через очередь воркера
// - Справочники категорий и муниципалитетов, статистика наборов данных
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//	- text/csv
//
// swagger:meta
package docs
