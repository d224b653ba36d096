package model

import (
	"encoding/json"
	"time"
)

// ChildInfo はアセスメント対象の児童情報を表す。
type ChildInfo struct {
	Name                string `json:"name"`
	Age                 int    `json:"age"`
	DominantHand        string `json:"dominantHand,omitempty"`
	PreviousAssessments string `json:"previousAssessments,omitempty"`
	SpecificConcerns    string `json:"specificConcerns,omitempty"`
}

// TestResult は個別テスト項目の結果を表す。
type TestResult struct {
	TestName      string  `json:"testName"`
	TimeInSeconds float64 `json:"timeInSeconds"`
}

// Observations はアセスメント中の臨床観察所見を表す。
type Observations struct {
	MotorSkills      string `json:"motorSkills,omitempty"`
	Concentration    string `json:"concentration,omitempty"`
	FrustrationLevel string `json:"frustrationLevel,omitempty"`
	CooperationLevel string `json:"cooperationLevel,omitempty"`
	AdditionalNotes  string `json:"additionalNotes,omitempty"`
}

// Assessment は保護者が記録した発達アセスメントを表す。
// ParentAuth0IDが所有者フィールドであり、全アクセスで所有権検証の対象となる。
type Assessment struct {
	ID             string
	ParentAuth0ID  string
	ChildInfo      ChildInfo
	TestResults    []TestResult
	TotalTime      float64
	Observations   Observations
	AssessmentDate string
	AssessmentType string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OwnerID は所有権ポリシーが参照する所有者識別子を返す。
func (a *Assessment) OwnerID() string { return a.ParentAuth0ID }

// AssessmentUpdate は部分更新で指定可能なフィールドを表す。
// nilのフィールドは変更しない。
type AssessmentUpdate struct {
	ChildInfo      *ChildInfo
	TestResults    []TestResult
	TotalTime      *float64
	Observations   *Observations
	AssessmentDate *string
	AssessmentType *string
}

// IsEmpty は更新対象フィールドが1つもないかを返す。
func (u AssessmentUpdate) IsEmpty() bool {
	return u.ChildInfo == nil && u.TestResults == nil && u.TotalTime == nil &&
		u.Observations == nil && u.AssessmentDate == nil && u.AssessmentType == nil
}

// MarshalTestResults はJSONB保存用にテスト結果をシリアライズする。
func MarshalTestResults(results []TestResult) ([]byte, error) {
	if results == nil {
		results = []TestResult{}
	}
	return json.Marshal(results)
}
