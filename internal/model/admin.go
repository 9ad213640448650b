package model

// Dataset is an administrator-owned record with no relationships.
type Dataset struct {
	ID          int64  `json:"id"`
	Name        string `json:"dataset_name"`
	Description string `json:"data_description"`
	Status      string `json:"status"`
}

// PerformanceSample is one append-only system performance observation.
type PerformanceSample struct {
	ID              int64    `json:"id"`
	Metric          string   `json:"Performance_Metric"`
	Status          string   `json:"System_Status"`
	ExistingClients int64    `json:"Existing_Clients"`
	NewClients      int64    `json:"New_Clients"`
	RecordedAt      DateTime `json:"Timestamp"`
}

// ReportRow is one row of a precomputed reporting table, keyed by the column
// names the dashboards chart.
type ReportRow map[string]any
