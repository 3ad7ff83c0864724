package dto

import "wesee/internal/domain/profile"

type ProfileSavedResponse struct {
	ProfileID   int64  `json:"profile_id"`
	LinkedInURL string `json:"linkedin_url"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type ProfileResponse struct {
	Success     bool             `json:"success"`
	LinkedInURL string           `json:"linkedin_url"`
	Data        profile.Document `json:"data"`
}
