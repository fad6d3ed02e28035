package database

import (
	"time"
)

// Maintenance window status values.
const (
	WindowStatusPlanned    = "planned"
	WindowStatusInProgress = "in_progress"
	WindowStatusCompleted  = "completed"
	WindowStatusFailed     = "failed"
)

// Job and task status values. Cancellation is set by an external actor; the
// scheduler only observes it on its status scan.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Server represents a managed physical server.
type Server struct {
	ID            string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Hostname      string  `json:"hostname" gorm:"not null;uniqueIndex;type:varchar(255)"`
	Model         string  `json:"model" gorm:"type:varchar(128)"`
	ServiceTag    string  `json:"service_tag" gorm:"type:varchar(64);index"`
	ClusterID     *string `json:"cluster_id" gorm:"type:varchar(64);index"`
	ServerGroupID *string `json:"server_group_id" gorm:"type:varchar(64);index"`

	// Management connectivity
	Status          string     `json:"status" gorm:"type:varchar(32);default:'connected'"` // connected, disconnected, maintenance
	FirmwareVersion string     `json:"firmware_version" gorm:"type:varchar(64)"`
	LastSeenAt      *time.Time `json:"last_seen_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Server) TableName() string { return "servers" }

// HostSystem represents a hypervisor host and its link to the physical
// server underneath it. Target resolution for cluster-scoped windows walks
// cluster -> hosts -> linked servers.
type HostSystem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string  `json:"name" gorm:"not null;type:varchar(255);index"`
	ClusterID *string `json:"cluster_id" gorm:"type:varchar(64);index"`
	ServerID  *string `json:"server_id" gorm:"type:varchar(64);index"`

	ConnectionState string `json:"connection_state" gorm:"type:varchar(32);default:'connected'"`
	MaintenanceMode bool   `json:"maintenance_mode" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (HostSystem) TableName() string { return "host_systems" }

// Cluster is a named set of hypervisor hosts.
type Cluster struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name string `json:"name" gorm:"not null;uniqueIndex;type:varchar(255)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Hosts []HostSystem `json:"hosts,omitempty" gorm:"foreignKey:ClusterID;references:ID"`
}

func (Cluster) TableName() string { return "clusters" }

// ServerGroup is a named set of physical servers outside any cluster.
type ServerGroup struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string  `json:"name" gorm:"not null;uniqueIndex;type:varchar(255)"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Servers []Server `json:"servers,omitempty" gorm:"foreignKey:ServerGroupID;references:ID"`
}

func (ServerGroup) TableName() string { return "server_groups" }

// MaintenanceWindow is a planned maintenance definition. One-time windows
// execute directly; recurring templates never execute themselves and instead
// spawn one-time instances through the recurrence engine.
type MaintenanceWindow struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Title       string  `json:"title" gorm:"not null;type:varchar(255)"`
	Description *string `json:"description" gorm:"type:text"`

	PlannedStart time.Time `json:"planned_start" gorm:"not null;index"`
	PlannedEnd   time.Time `json:"planned_end" gorm:"not null"`

	Status          string `json:"status" gorm:"type:varchar(32);default:'planned';index"`
	MaintenanceType string `json:"maintenance_type" gorm:"not null;type:varchar(64)"`

	// Target selectors, JSON-encoded lists
	ClusterIDs     StringList `json:"cluster_ids" gorm:"type:text"`
	ServerGroupIDs StringList `json:"server_group_ids" gorm:"type:text"`
	ServerIDs      StringList `json:"server_ids" gorm:"type:text"`

	AutoExecute bool `json:"auto_execute" gorm:"default:false"`

	// Recurrence: the structured config lives in Details under
	// "recurrence_config"; RecurrencePattern is the raw 5-field fallback.
	RecurrenceEnabled bool       `json:"recurrence_enabled" gorm:"default:false;index"`
	RecurrencePattern *string    `json:"recurrence_pattern" gorm:"type:varchar(100)"`
	LastExecutedAt    *time.Time `json:"last_executed_at"`
	ParentTemplateID  *string    `json:"parent_template_id" gorm:"type:varchar(64);index"`

	Details JSONMap    `json:"details" gorm:"type:text"`
	JobIDs  StringList `json:"job_ids" gorm:"type:text"`

	ActualStart *time.Time `json:"actual_start"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedBy string    `json:"created_by" gorm:"type:varchar(255);default:'system'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (MaintenanceWindow) TableName() string { return "maintenance_windows" }

// Job is the unit of work handed to the external execution worker.
type Job struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	JobType string `json:"job_type" gorm:"not null;type:varchar(64);index"`

	// Target scope
	ClusterID     *string    `json:"cluster_id" gorm:"type:varchar(64);index"`
	ServerGroupID *string    `json:"server_group_id" gorm:"type:varchar(64);index"`
	ServerIDs     StringList `json:"server_ids" gorm:"type:text"`

	Details JSONMap `json:"details" gorm:"type:text"`
	Status  string  `json:"status" gorm:"type:varchar(32);default:'pending';index"`

	ErrorMessage string `json:"error_message" gorm:"type:text"`

	CreatedBy   string     `json:"created_by" gorm:"type:varchar(255);default:'system'"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Tasks []JobTask `json:"tasks,omitempty" gorm:"foreignKey:JobID;references:ID"`
}

func (Job) TableName() string { return "jobs" }

// JobTask binds one job to one target server with its own status.
type JobTask struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	JobID    string `json:"job_id" gorm:"not null;index;type:varchar(64)"`
	ServerID string `json:"server_id" gorm:"not null;index;type:varchar(64)"`
	Status   string `json:"status" gorm:"type:varchar(32);default:'pending'"`

	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (JobTask) TableName() string { return "job_tasks" }

// SchedulerLease is the single-row advisory lock that keeps overlapping
// scheduler invocations from running concurrently.
type SchedulerLease struct {
	Name       string    `json:"name" gorm:"primaryKey;type:varchar(64)"`
	HolderID   string    `json:"holder_id" gorm:"not null;type:varchar(64)"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
}

func (SchedulerLease) TableName() string { return "scheduler_leases" }
