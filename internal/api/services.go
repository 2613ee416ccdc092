package api

import (
	"github.com/julianstephens/growthtrack/internal/config"
	"github.com/julianstephens/growthtrack/internal/crud"
	"github.com/julianstephens/growthtrack/internal/habits"
	"github.com/julianstephens/growthtrack/internal/models"
	"github.com/julianstephens/growthtrack/internal/scheduler"
	"github.com/julianstephens/growthtrack/internal/storage"
)

const (
	ServiceGoals    = "goals"
	ServiceRoadmaps = "roadmaps"
	ServiceSkills   = "skills"
	ServiceHabits   = "habits"
	ServiceAll      = "all"
)

// ServiceNames lists the mountable services in route order
var ServiceNames = []string{ServiceGoals, ServiceRoadmaps, ServiceSkills, ServiceHabits}

// Services holds one service per resource, all sharing a storage provider
type Services struct {
	Goals    *crud.Service[models.Goal, *models.Goal]
	Roadmaps *crud.Service[models.Milestone, *models.Milestone]
	Skills   *crud.Service[models.Skill, *models.Skill]
	Habits   *habits.Service
}

// Tables returns the layout of every table the services use
func Tables(t config.TableConfig) []storage.Table {
	return []storage.Table{
		GoalEntity(t.Goals).Table,
		MilestoneEntity(t.Roadmaps).Table,
		SkillEntity(t.Skills).Table,
		habits.HabitTable(t.Habits),
		habits.LogTable(t.HabitLogs),
	}
}

func GoalEntity(table string) crud.Entity[models.Goal] {
	return crud.Entity[models.Goal]{
		Name:  "Goal",
		Path:  "/goals",
		Table: storage.Table{Name: table, PartitionKey: "user_id", SortKey: "goal_id"},
		New:   models.NewGoal,
	}
}

// MilestoneEntity is the roadmaps resource. Milestones are partitioned by goal.
func MilestoneEntity(table string) crud.Entity[models.Milestone] {
	return crud.Entity[models.Milestone]{
		Name:  "Milestone",
		Path:  "/roadmaps",
		Table: storage.Table{Name: table, PartitionKey: "goal_id", SortKey: "milestone_id"},
		New:   models.NewMilestone,
	}
}

func SkillEntity(table string) crud.Entity[models.Skill] {
	return crud.Entity[models.Skill]{
		Name:  "Skill",
		Path:  "/skills",
		Table: storage.Table{Name: table, PartitionKey: "user_id", SortKey: "skill_id"},
		New:   models.NewSkill,
	}
}

func NewServices(store storage.Provider, t config.TableConfig, sched *scheduler.Scheduler) *Services {
	return &Services{
		Goals:    crud.NewService[models.Goal](store, GoalEntity(t.Goals)),
		Roadmaps: crud.NewService[models.Milestone](store, MilestoneEntity(t.Roadmaps)),
		Skills:   crud.NewService[models.Skill](store, SkillEntity(t.Skills)),
		Habits:   habits.New(store, habits.Tables{Habits: t.Habits, HabitLogs: t.HabitLogs}, sched),
	}
}
