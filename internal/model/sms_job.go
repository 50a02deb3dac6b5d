package model

import "time"

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
)

type SmsType string

const (
	SmsNormal  SmsType = "normal"
	SmsConsent SmsType = "consent"
	SmsSurvey  SmsType = "survey"
)

// Personalized reports whether each recipient gets a generated confirmation link
// in place of the job message.
func (t SmsType) Personalized() bool {
	return t == SmsConsent || t == SmsSurvey
}

type SmsJob struct {
	ID           int64     `db:"id" json:"id"`
	District     *string   `db:"district" json:"district,omitempty"`
	Area         *string   `db:"area" json:"area,omitempty"`
	GroupID      *int64    `db:"group_id" json:"groupId,omitempty"`
	Message      string    `db:"message" json:"message"`
	Type         SmsType   `db:"sms_type" json:"type"`
	Status       Status    `db:"status" json:"status"`
	HasCompleted bool      `db:"has_completed" json:"hasCompleted"`
	Failure      string    `db:"failure" json:"failure"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CsvBulkUpload is an uploaded inmate list waiting to be imported into a camp.
type CsvBulkUpload struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	CampID        int64     `db:"camp_id" json:"campId"`
	FilePath      string    `db:"file_path" json:"filePath"`
	IsCompleted   bool      `db:"is_completed" json:"isCompleted"`
	FailureReason *string   `db:"failure_reason" json:"failureReason,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
