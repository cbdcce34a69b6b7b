package models

// All returns every model managed by AutoMigrate, parents before children
func All() []interface{} {
	return []interface{}{
		&User{},
		&Consultant{},
		&ConsultantSchedule{},
		&ConsultantRating{},
		&FormTemplate{},
		&FormField{},
		&FormFieldOption{},
		&FormSubmission{},
		&FormSubmissionAnswer{},
		&ConsultationTicket{},
		&ConsultationTicketConsultant{},
		&TicketMessage{},
		&AuditLog{},
	}
}
