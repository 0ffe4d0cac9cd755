package model

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// swagger:model LearningPath
type LearningPath struct {
	UUIDBase
	UserID                   uint             `gorm:"index;type:bigint unsigned" json:"-"`
	StudentName              string           `gorm:"size:100" json:"studentName"`
	Title                    string           `gorm:"size:255" json:"title,omitempty"`
	OverallGoal              string           `gorm:"type:text" json:"overallGoal"`
	EstimatedCompletionWeeks int              `gorm:"default:0" json:"estimatedCompletionWeeks"`
	Level                    string           `gorm:"size:32" json:"level"`
	Modules                  []LearningModule `gorm:"foreignKey:PathID;references:ID" json:"modules"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// Module returns the syllabus entry with the given id, or nil.
func (p *LearningPath) Module(moduleID string) *LearningModule {
	for i := range p.Modules {
		if p.Modules[i].ID == moduleID {
			return &p.Modules[i]
		}
	}
	return nil
}

// Syllabus lists the module titles in order, used as chat context.
func (p *LearningPath) Syllabus() []string {
	titles := make([]string, len(p.Modules))
	for i, m := range p.Modules {
		titles[i] = m.Title
	}
	return titles
}

// LearningModule is one syllabus unit. The syllabus is fixed once the path
// is generated; only the separately stored lesson content evolves.
type LearningModule struct {
	PathID      string   `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ID          string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Position    int      `gorm:"not null" json:"-"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Duration    string   `gorm:"size:64" json:"duration"`
	Difficulty  string   `gorm:"size:32" json:"difficulty"`
	Topics      []string `gorm:"serializer:json;type:text" json:"topics"`
	Description string   `gorm:"type:text" json:"description"`
}

func (LearningModule) TableName() string {
	return "learning_modules"
}
