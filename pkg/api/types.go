package api

import "encoding/json"

// ConsentRequest is the body of the consent call.
type ConsentRequest struct {
	Consent bool `json:"consent"`
}

// ConsentResponse carries whatever the service answered; its shape is
// not interpreted.
type ConsentResponse struct {
	Raw json.RawMessage `json:"-"`
}

// Application is the full application form record keyed by field key.
type Application map[string]any

// Prediction is the scoring decision for an application. Probability is
// the approval probability in the [0, 1] range; Importance maps feature
// names to signed contributions.
type Prediction struct {
	Approved    bool               `json:"approved"`
	Probability float64            `json:"probability"`
	Importance  map[string]float64 `json:"importance"`

	Raw json.RawMessage `json:"-"`
}

// Report describes the quality of the deployed model.
type Report struct {
	Accuracy   float64  `json:"accuracy"`
	Precision  float64  `json:"precision"`
	Recall     float64  `json:"recall"`
	BiasChecks []string `json:"bias_checks"`
}
