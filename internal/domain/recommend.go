package domain

// JobRecommendation is one suggested role. MatchScore is a percentage in
// [0,100]. Placeholder marks the degraded fallback item, whose Description
// carries an explanation instead of a genuine recommendation.
type JobRecommendation struct {
	Title          string   `json:"title"`
	Organization   string   `json:"organization"`
	Description    string   `json:"description"`
	MatchScore     int      `json:"match_score"`
	RequiredSkills []string `json:"required_skills"`
	Placeholder    bool     `json:"is_placeholder,omitempty"`
}

// SkillRecommendation is one suggested skill to learn. Importance is a
// rating in [1,10].
type SkillRecommendation struct {
	SkillName   string   `json:"skill_name"`
	Importance  int      `json:"importance"`
	Reason      string   `json:"reason"`
	Resources   []string `json:"resources"`
	Placeholder bool     `json:"is_placeholder,omitempty"`
}
