package hubspot

type contactProfileResponse struct {
	VID int64  `json:"vid"`
	ID  string `json:"id"`
}

type updatePropertiesRequest struct {
	Properties []propertyUpdate `json:"properties"`
}

type propertyUpdate struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}
