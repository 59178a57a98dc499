package service

import "fmt"

const maxPromptText = 20000

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxPromptText {
		return s
	}
	return string(r[:maxPromptText])
}

func analysisPrompt(resumeText, jd string) string {
	jdNote := "No job description was supplied: return an empty missingKeywords array."
	if jd != "" {
		jdNote = "missingKeywords lists skills the job description asks for that the resume does not show."
	}
	return fmt.Sprintf(`You review resumes. Reply with exactly one JSON object and nothing else:
{
  "summary": string,            // a rewritten professional summary, 2-4 sentences
  "extractedSkills": string[],  // skills the resume demonstrates
  "missingKeywords": string[],
  "highlights": string[],       // at most 6 short achievement statements
  "score": number               // overall quality 0-100
}
%s
Do not invent experience that is not in the resume.

RESUME:
%s

JOB DESCRIPTION:
%s
`, jdNote, clip(resumeText), clip(jd))
}

func keywordsPrompt(jd string) string {
	return fmt.Sprintf(`Extract the 10 to 25 most important skills and keywords from this job description.
Reply with exactly one JSON object and nothing else:
{"keywords": string[]}

JOB DESCRIPTION:
%s
`, clip(jd))
}

func comparisonPrompt(resumeText, jd string) string {
	return fmt.Sprintf(`Compare the resume with the job description.
Reply with exactly one JSON object and nothing else:
{
  "matchScore": number,          // 0-100
  "jdKeywords": string[],
  "missingSkills": string[],     // required by the job, absent from the resume
  "recommendations": string[]    // concrete edits to the resume
}

RESUME:
%s

JOB DESCRIPTION:
%s
`, clip(resumeText), clip(jd))
}
