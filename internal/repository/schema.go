package repository

// Entities lists every table the repositories use, in dependency order.
// Production schemas come from the goose migrations; this feeds AutoMigrate
// for sqlite-backed tests and local runs.
func Entities() []any {
	return []any{
		&ClassEntity{},
		&StudentEntity{},
		&TeacherEntity{},
		&ProductEntity{},
		&PurchaseEntity{},
		&LedgerEntryEntity{},
		&NotificationReportEntity{},
	}
}
