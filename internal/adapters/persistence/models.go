package persistence

import "time"

// RunModel represents the runs table
type RunModel struct {
	ID           string     `gorm:"column:id;primaryKey;not null"`
	Status       string     `gorm:"column:status;not null;index"`
	Adjacency    int        `gorm:"column:adjacency;not null"`
	CutOff       int        `gorm:"column:cut_off"`
	Temporal     bool       `gorm:"column:temporal"`
	TemporalMode string     `gorm:"column:temporal_mode"`
	Strategy     string     `gorm:"column:strategy"`
	Workers      int        `gorm:"column:workers"`
	JobCount     int        `gorm:"column:job_count"`
	Succeeded    int        `gorm:"column:succeeded;default:0"`
	Failed       int        `gorm:"column:failed;default:0"`
	Canceled     int        `gorm:"column:canceled;default:0"`
	Events       int        `gorm:"column:events;default:0"`
	LastError    string     `gorm:"column:last_error;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	StoppedAt    *time.Time `gorm:"column:stopped_at"`
}

func (RunModel) TableName() string {
	return "runs"
}

// JobModel represents the jobs table, one row per finished job
type JobModel struct {
	ID           string     `gorm:"column:id;primaryKey;not null"`
	RunID        string     `gorm:"column:run_id;not null;index:idx_jobs_run_index,priority:1"`
	Run          *RunModel  `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	JobIndex     int        `gorm:"column:job_index;not null;index:idx_jobs_run_index,priority:2"`
	Input        string     `gorm:"column:input;type:text;not null"`
	Output       string     `gorm:"column:output;type:text"`
	DatesOutput  string     `gorm:"column:dates_output;type:text"`
	Status       string     `gorm:"column:status;not null"`
	Events       int        `gorm:"column:events;default:0"`
	BurnedPixels int        `gorm:"column:burned_pixels;default:0"`
	ErrorKind    string     `gorm:"column:error_kind"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	StoppedAt    *time.Time `gorm:"column:stopped_at"`
}

func (JobModel) TableName() string {
	return "jobs"
}

// EventModel represents the fire_events table (attribute output per event)
type EventModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;not null;index:idx_events_run_job,priority:1"`
	Run       *RunModel `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	JobIndex  int       `gorm:"column:job_index;not null;index:idx_events_run_job,priority:2"`
	Label     int64     `gorm:"column:label;not null"`
	Pixels    int       `gorm:"column:pixels;not null"`
	FirstDate *int      `gorm:"column:first_date"`
	LastDate  *int      `gorm:"column:last_date"`
	MinRow    int       `gorm:"column:min_row"`
	MinCol    int       `gorm:"column:min_col"`
	MaxRow    int       `gorm:"column:max_row"`
	MaxCol    int       `gorm:"column:max_col"`
}

func (EventModel) TableName() string {
	return "fire_events"
}

// JobLogModel represents the job_logs table
type JobLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;not null;index"`
	JobID     string    `gorm:"column:job_id;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"`
}

func (JobLogModel) TableName() string {
	return "job_logs"
}

// AllModels lists every model for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&RunModel{},
		&JobModel{},
		&EventModel{},
		&JobLogModel{},
	}
}
