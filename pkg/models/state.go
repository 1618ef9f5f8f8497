package models

import "encoding/json"

// UIState is the state owned by one view. Values holds derived display
// figures such as the current greeting or a balance.
type UIState struct {
	View       string
	Inputs     map[string]string
	Values     map[string]string
	Loading    bool
	InFlight   int
	Err        error
	LastResult *GatewayResponse
	LastCall   string
	Status     CallStatus
}

// Clone returns a deep copy safe to hand out of the owning view.
func (s UIState) Clone() UIState {
	cp := s
	cp.Inputs = make(map[string]string, len(s.Inputs))
	for k, v := range s.Inputs {
		cp.Inputs[k] = v
	}
	cp.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		cp.Values[k] = v
	}
	if s.LastResult != nil {
		r := *s.LastResult
		cp.LastResult = &r
	}
	return cp
}

// ErrorMessage returns the display string of the last error, if any.
func (s UIState) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s UIState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		View       string            `json:"view"`
		Inputs     map[string]string `json:"inputs"`
		Values     map[string]string `json:"values"`
		Loading    bool              `json:"loading"`
		InFlight   int               `json:"in_flight"`
		Error      string            `json:"error,omitempty"`
		LastResult *GatewayResponse  `json:"last_result,omitempty"`
		LastCall   string            `json:"last_call,omitempty"`
		Status     CallStatus        `json:"status"`
	}{
		View:       s.View,
		Inputs:     s.Inputs,
		Values:     s.Values,
		Loading:    s.Loading,
		InFlight:   s.InFlight,
		Error:      s.ErrorMessage(),
		LastResult: s.LastResult,
		LastCall:   s.LastCall,
		Status:     s.Status,
	})
}
