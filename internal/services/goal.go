package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"vocab-backend/internal/models"
)

// GoalService changes a student's daily learning goal.
type GoalService struct {
	students StudentStore
	hook     StateChangeHook
}

func NewGoalService(students StudentStore, hook StateChangeHook) *GoalService {
	return &GoalService{students: students, hook: hook}
}

// SetLearningGoal validates and stores goal. A goal locked by a teacher can
// not be changed by the student.
func (s *GoalService) SetLearningGoal(ctx context.Context, studentID uuid.UUID, goal int) (*models.Student, error) {
	if goal < 0 || goal > models.MaxLearningGoal {
		return nil, invalid("goal", fmt.Sprintf("Goal must be between 0 and %d", models.MaxLearningGoal))
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if isNoRows(err) {
			return nil, &NotFoundError{Message: "Student not found"}
		}
		return nil, storeErr("load student", err)
	}
	if student.LearningGoalLocked {
		return nil, &ForbiddenError{Message: "Learning goal is set by your teacher"}
	}

	if err := s.students.SetLearningGoal(ctx, studentID, goal); err != nil {
		return nil, storeErr("set learning goal", err)
	}
	student.LearningGoal = goal

	// Refresh today's goal snapshot.
	if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
		return nil, err
	}
	return student, nil
}
