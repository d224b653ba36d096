package handler

import (
	"time"

	"github.com/brainwave/brainwave/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID            string    `json:"id"`
	Auth0ID       string    `json:"auth0Id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Picture       string    `json:"picture"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Auth0ID:       user.Auth0ID,
		Email:         user.Email,
		Name:          user.Name,
		Picture:       user.Picture,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	return responses
}

// sessionIdentityResponse はセッションに保存されたuserinfoスナップショットのAPIレスポンス。
type sessionIdentityResponse struct {
	Auth0ID       string `json:"auth0Id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"emailVerified"`
}

func toSessionIdentityResponse(info *model.UserInfo) sessionIdentityResponse {
	return sessionIdentityResponse{
		Auth0ID:       info.Subject,
		Email:         info.Email,
		Name:          info.Name,
		Picture:       info.Picture,
		EmailVerified: info.EmailVerified,
	}
}

// assessmentResponse はアセスメントのAPIレスポンス。
type assessmentResponse struct {
	ID             string             `json:"id"`
	ChildInfo      model.ChildInfo    `json:"childInfo"`
	TestResults    []model.TestResult `json:"testResults"`
	TotalTime      float64            `json:"totalTime"`
	Observations   model.Observations `json:"observations"`
	AssessmentDate string             `json:"assessmentDate"`
	AssessmentType string             `json:"assessmentType"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func toAssessmentResponse(a *model.Assessment) assessmentResponse {
	results := a.TestResults
	if results == nil {
		results = []model.TestResult{}
	}
	return assessmentResponse{
		ID:             a.ID,
		ChildInfo:      a.ChildInfo,
		TestResults:    results,
		TotalTime:      a.TotalTime,
		Observations:   a.Observations,
		AssessmentDate: a.AssessmentDate,
		AssessmentType: a.AssessmentType,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAssessmentResponses(assessments []*model.Assessment) []assessmentResponse {
	responses := make([]assessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		responses = append(responses, toAssessmentResponse(a))
	}
	return responses
}

// reportResponse は生成済みレポートのAPIレスポンス。
type reportResponse struct {
	ID            string    `json:"id"`
	AssessmentID  string    `json:"assessmentId"`
	ReportContent string    `json:"reportContent"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toReportResponse(r *model.Report) reportResponse {
	return reportResponse{
		ID:            r.ID,
		AssessmentID:  r.AssessmentID,
		ReportContent: r.ReportContent,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toReportResponses(reports []*model.Report) []reportResponse {
	responses := make([]reportResponse, 0, len(reports))
	for _, r := range reports {
		responses = append(responses, toReportResponse(r))
	}
	return responses
}

// practiceResponse は発話練習記録のAPIレスポンス。
type practiceResponse struct {
	ID                 string    `json:"id"`
	ChildName          string    `json:"childName"`
	Score              int       `json:"score"`
	TotalQuestions     int       `json:"totalQuestions"`
	QuestionsAttempted int       `json:"questionsAttempted"`
	PracticeDate       string    `json:"practiceDate"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toPracticeResponse(p *model.SpeechPractice) practiceResponse {
	return practiceResponse{
		ID:                 p.ID,
		ChildName:          p.ChildName,
		Score:              p.Score,
		TotalQuestions:     p.TotalQuestions,
		QuestionsAttempted: p.QuestionsAttempted,
		PracticeDate:       p.PracticeDate,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toPracticeResponses(practices []*model.SpeechPractice) []practiceResponse {
	responses := make([]practiceResponse, 0, len(practices))
	for _, p := range practices {
		responses = append(responses, toPracticeResponse(p))
	}
	return responses
}

// activityResponse は日課アクティビティのAPIレスポンス。
type activityResponse struct {
	ID           string    `json:"id"`
	ChildName    string    `json:"childName"`
	PresetType   string    `json:"presetType"`
	TaskID       string    `json:"taskId"`
	TaskTitle    string    `json:"taskTitle"`
	TaskEmoji    string    `json:"taskEmoji"`
	CompletedAt  time.Time `json:"completedAt"`
	ActivityDate string    `json:"activityDate"`
}

func toActivityResponse(a *model.DailyScheduleActivity) activityResponse {
	return activityResponse{
		ID:           a.ID,
		ChildName:    a.ChildName,
		PresetType:   a.PresetType,
		TaskID:       a.TaskID,
		TaskTitle:    a.TaskTitle,
		TaskEmoji:    a.TaskEmoji,
		CompletedAt:  a.CompletedAt,
		ActivityDate: a.ActivityDate,
	}
}

// scheduleSummaryResponse は日別アクティビティ集計のAPIレスポンス。
type scheduleSummaryResponse struct {
	Date           string             `json:"date"`
	TotalCompleted int                `json:"totalCompleted"`
	Activities     []activityResponse `json:"activities"`
}

func toScheduleSummaryResponse(s *model.DailyScheduleSummary) scheduleSummaryResponse {
	activities := make([]activityResponse, 0, len(s.Activities))
	for _, a := range s.Activities {
		activities = append(activities, toActivityResponse(a))
	}
	return scheduleSummaryResponse{
		Date:           s.Date,
		TotalCompleted: s.TotalCompleted,
		Activities:     activities,
	}
}

func toScheduleSummaryResponses(summaries []*model.DailyScheduleSummary) []scheduleSummaryResponse {
	responses := make([]scheduleSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, toScheduleSummaryResponse(s))
	}
	return responses
}
