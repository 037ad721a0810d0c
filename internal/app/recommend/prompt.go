package recommend

import (
	"fmt"
	"strings"
)

// The templates treat the model as unreliable text, not a structured API:
// they spell out the exact field names, value ranges, and item counts, and
// the parser still assumes nothing.

const jobPromptTemplate = `Provide job recommendations for a person with the following skills:
%s

Their job interests are:
%s

Format your response as a JSON array with objects containing:
1. title - the name of the job
2. organization - an example organization offering this role
3. description - a brief job description
4. match_score - a percentage (70-98) indicating how well the job matches their profile
5. required_skills - an array of 3-5 key skills for this job

Return exactly 3 job recommendations.`

const skillPromptTemplate = `Provide skill improvement recommendations for a person with the following skills:
%s

Their job interests are:
%s

Format your response as a JSON array with objects containing:
1. skill_name - the name of the skill to learn
2. importance - a rating from 1-10 of how important this skill is
3. reason - why this skill would be valuable
4. resources - an array of 2-3 resources for learning this skill

Return exactly 5 skill recommendations that would complement their existing skills.`

const (
	noSkillsPlaceholder    = "No skills provided"
	noInterestsPlaceholder = "No interests provided"
)

// BuildJobPrompt renders the deterministic job instruction for a profile.
func BuildJobPrompt(skills, interests []string) string {
	return fmt.Sprintf(jobPromptTemplate,
		joinOr(skills, noSkillsPlaceholder),
		joinOr(interests, noInterestsPlaceholder),
	)
}

// BuildSkillPrompt renders the deterministic skill instruction for a profile.
func BuildSkillPrompt(skills, interests []string) string {
	return fmt.Sprintf(skillPromptTemplate,
		joinOr(skills, noSkillsPlaceholder),
		joinOr(interests, noInterestsPlaceholder),
	)
}

func joinOr(items []string, placeholder string) string {
	if len(items) == 0 {
		return placeholder
	}
	return strings.Join(items, ", ")
}
