package models

// User is a principal. Authentication happens outside this module.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:254" json:"-"`
}

// Team belongs to a project; its members can read the project
type Team struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:90;not null" json:"name"`
	ProjectID uint   `gorm:"not null;index" json:"project"`

	Project *Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Role is a project scoped role name for team members
type Role struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:90;not null" json:"name"`
	ProjectID uint   `gorm:"not null;index" json:"project"`

	Project *Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TeamMember links a user to a team with a role
type TeamMember struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TeamID uint `gorm:"not null;uniqueIndex:unique_team_employee" json:"team"`
	UserID uint `gorm:"not null;uniqueIndex:unique_team_employee;index" json:"user"`
	RoleID uint `gorm:"not null" json:"role"`

	Team *Team `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Role *Role `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// State is a project scoped workflow state for activities
type State struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:50;not null" json:"name"`
	ProjectID uint   `gorm:"not null;index" json:"-"`
}
