// Package domain defines the persistence models for the gated chat
// application: the IP allowlist, the append-only access audit log, user
// profiles, chat sessions, and chat history. These types are mapped with
// GORM and form the core data layer.
package domain

import "time"

// WhitelistEntry is a single allowlisted IP literal. Matching against it is
// exact string equality (no CIDR/subnet semantics). Deactivation is a soft
// flag flip; hard removal is also supported.
//
// Invariant: ip_address is unique across the table regardless of active
// state, enforced by a unique index plus a pre-insert existence check in the
// repository (insert fails fast on any duplicate literal).
type WhitelistEntry struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	IPAddress   string    `json:"ip_address"  gorm:"type:varchar(45);not null;uniqueIndex:ux_whitelist_ip"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
	AddedBy     string    `json:"added_by"    gorm:"type:varchar(64);not null;default:'admin'"`
	IsActive    bool      `json:"is_active"   gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for WhitelistEntry.
func (WhitelistEntry) TableName() string { return "ip_whitelist" }

// AccessLog records one gate decision. Rows are append-only: the application
// never mutates or deletes them. Grants and denials are logged identically.
//
// Fingerprint and SessionID are nullable; they are not available at the gate
// layer and stay empty there (chat-specific rows may fill them later).
type AccessLog struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	IPAddress      string    `json:"ip_address"      gorm:"type:varchar(45);not null;index"`
	AccessGranted  bool      `json:"access_granted"  gorm:"not null;index"`
	UserAgent      string    `json:"user_agent"      gorm:"type:text"`
	BrowserName    *string   `json:"browser_name"    gorm:"type:varchar(64)"`
	BrowserVersion *string   `json:"browser_version" gorm:"type:varchar(64)"`
	OSName         *string   `json:"os_name"         gorm:"type:varchar(64)"`
	DeviceType     *string   `json:"device_type"     gorm:"type:varchar(16)"`
	Fingerprint    *string   `json:"fingerprint"     gorm:"type:varchar(64)"`
	SessionID      *string   `json:"session_id"      gorm:"type:varchar(64)"`
	Path           string    `json:"path"            gorm:"type:varchar(255)"`
	Timestamp      time.Time `json:"timestamp"       gorm:"not null;index"`
}

// TableName returns the database table name for AccessLog.
func (AccessLog) TableName() string { return "access_logs" }

// UserProfile is an account created by the auth subsystem on signup.
// LastLogin is updated on each successful login.
type UserProfile struct {
	ID           string     `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string     `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_user_email"`
	FullName     string     `json:"full_name"  gorm:"type:varchar(255)"`
	PasswordHash string     `json:"-"          gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	IsActive     bool       `json:"is_active"  gorm:"not null;default:true"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// ChatSession groups chat turns under a client-generated, browser-stable
// identifier. It is distinct from the authentication session. Rows are
// upserted keyed by SessionID on every chat turn; MessageCount is
// incremented atomically in SQL (never read-modify-write from the caller).
type ChatSession struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	SessionID    string    `json:"session_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_chat_session"`
	UserID       *string   `json:"user_id"       gorm:"type:char(36);index"`
	IPAddress    string    `json:"ip_address"    gorm:"type:varchar(45)"`
	Fingerprint  *string   `json:"fingerprint"   gorm:"type:varchar(64)"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"     gorm:"index"`
	MessageCount int64     `json:"message_count" gorm:"not null;default:0"`
	IsActive     bool      `json:"is_active"     gorm:"not null;default:true"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a chat session. Append-only, ordered by
// Timestamp ascending; one row per turn per role.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(64);not null;index:idx_history_session,priority:1"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp"  gorm:"not null;index:idx_history_session,priority:2"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_history" }
