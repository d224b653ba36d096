package report

import (
	"fmt"
	"strings"

	"github.com/brainwave/brainwave/internal/model"
)

// buildPrompt はアセスメントデータから臨床レポート生成用のプロンプトを組み立てる。
// JHFT（ジェブセン手機能テスト）の結果を小児作業療法士の観点で分析させる。
func buildPrompt(assessment *model.Assessment) string {
	var results strings.Builder
	for _, test := range assessment.TestResults {
		fmt.Fprintf(&results, "- %s: %g seconds\n", test.TestName, test.TimeInSeconds)
	}

	return fmt.Sprintf(`As a pediatric occupational therapist specializing in autism assessment and hand function evaluation, please analyze the following Jebsen Hand Function Test (JHFT) results and provide a comprehensive clinical report.

CHILD INFORMATION:
- Name: %s
- Age: %d years
- Dominant Hand: %s
- Previous Assessments: %s
- Specific Concerns: %s

TEST RESULTS (Time in Seconds):
%s
CLINICAL OBSERVATIONS:
Motor Skills: %s
Concentration: %s
Frustration Level: %s
Cooperation Level: %s
Additional Notes: %s

ANALYSIS REQUIREMENTS:
1. For EACH test, provide detailed analysis:
   - Compare the child's time against age-appropriate normative data and interquartile ranges for the Jebsen Hand Function Test
   - Calculate standard deviation from the mean for the child's age group
   - Clearly state if the performance is: Within Normal Range, Mildly Delayed, Moderately Delayed, or Significantly Delayed
   - Explain what this specific test measures (fine motor control, dexterity, coordination, speed, etc.)
   - Identify specific motor skills demonstrated or lacking

2. Statistical Performance Overview:
   - Calculate overall performance relative to normative standards
   - Identify which subtests fall outside the interquartile range (IQR)
   - Note any patterns in delays (e.g., bilateral vs unilateral tasks, speed vs precision)

3. Clinical Interpretation:
   - Synthesize findings into a cohesive performance profile
   - Relate findings to developmental milestones for the child's age
   - Consider the observations in context with test results

4. Strengths and Challenges:
   - List specific motor strengths demonstrated
   - Identify areas requiring support with evidence from test scores
   - Note behavioral factors affecting performance (concentration, frustration, cooperation)

5. Developmental Recommendations:
   - Suggest specific occupational therapy interventions
   - Recommend adaptive equipment if needed
   - Provide home-based activities for each area of concern

6. Follow-up Plan:
   - Recommend reassessment timeline based on severity of delays
   - Suggest additional assessments if indicated
   - Set measurable goals for improvement

FORMAT GUIDELINES:
- Use clear section headings
- Be specific with numbers and comparisons
- Avoid medical jargon; explain technical terms in parent-friendly language
- Include actionable next steps
- Maintain a supportive, encouraging tone while being clinically accurate
- Focus on the child's unique profile rather than generic recommendations`,
		orDefault(assessment.ChildInfo.Name, "N/A"),
		assessment.ChildInfo.Age,
		orDefault(assessment.ChildInfo.DominantHand, "N/A"),
		orDefault(assessment.ChildInfo.PreviousAssessments, "None"),
		orDefault(assessment.ChildInfo.SpecificConcerns, "None"),
		results.String(),
		orDefault(assessment.Observations.MotorSkills, "Not noted"),
		orDefault(assessment.Observations.Concentration, "Not noted"),
		orDefault(assessment.Observations.FrustrationLevel, "Not noted"),
		orDefault(assessment.Observations.CooperationLevel, "Not noted"),
		orDefault(assessment.Observations.AdditionalNotes, "None"),
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
