package tools

import (
	"testing"
)

func TestGetStringParam(t *testing.T) {
	tests := []struct {
		name      string
		arguments map[string]interface{}
		key       string
		required  bool
		want      string
		wantErr   bool
	}{
		{
			name:      "valid string parameter",
			arguments: map[string]interface{}{"app_id": "spark-123"},
			key:       "app_id",
			required:  true,
			want:      "spark-123",
			wantErr:   false,
		},
		{
			name:      "missing required parameter",
			arguments: map[string]interface{}{},
			key:       "app_id",
			required:  true,
			want:      "",
			wantErr:   true,
		},
		{
			name:      "missing optional parameter",
			arguments: map[string]interface{}{},
			key:       "server",
			required:  false,
			want:      "",
			wantErr:   false,
		},
		{
			name:      "numeric value converted to string",
			arguments: map[string]interface{}{"app_id": float64(456)},
			key:       "app_id",
			required:  true,
			want:      "456",
			wantErr:   false,
		},
		{
			name:      "wrong type (map)",
			arguments: map[string]interface{}{"app_id": map[string]interface{}{"k": "v"}},
			key:       "app_id",
			required:  true,
			want:      "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetStringParam(tt.arguments, tt.key, tt.required)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetStringParam() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("GetStringParam() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetIntParam(t *testing.T) {
	tests := []struct {
		name      string
		arguments map[string]interface{}
		key       string
		required  bool
		fallback  int
		want      int
		wantErr   bool
	}{
		{
			name:      "int from float64 (JSON number)",
			arguments: map[string]interface{}{"n": float64(10)},
			key:       "n",
			required:  true,
			want:      10,
		},
		{
			name:      "fallback used when absent",
			arguments: map[string]interface{}{},
			key:       "n",
			required:  false,
			fallback:  5,
			want:      5,
		},
		{
			name:      "missing required",
			arguments: map[string]interface{}{},
			key:       "n",
			required:  true,
			wantErr:   true,
		},
		{
			name:      "negative value passes through",
			arguments: map[string]interface{}{"n": float64(-1)},
			key:       "n",
			required:  false,
			want:      -1,
		},
		{
			name:      "string parsed",
			arguments: map[string]interface{}{"n": "42"},
			key:       "n",
			required:  true,
			want:      42,
		},
		{
			name:      "unparseable string",
			arguments: map[string]interface{}{"n": "many"},
			key:       "n",
			required:  true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetIntParam(tt.arguments, tt.key, tt.required, tt.fallback)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetIntParam() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("GetIntParam() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetBoolParam(t *testing.T) {
	got, err := GetBoolParam(map[string]interface{}{"include_running": true}, "include_running", false)
	if err != nil || !got {
		t.Errorf("GetBoolParam() = %v, %v, want true, nil", got, err)
	}

	got, err = GetBoolParam(map[string]interface{}{}, "include_running", false)
	if err != nil || got {
		t.Errorf("GetBoolParam() absent = %v, %v, want false, nil", got, err)
	}

	got, err = GetBoolParam(map[string]interface{}{"include_running": "true"}, "include_running", false)
	if err != nil || !got {
		t.Errorf("GetBoolParam() string = %v, %v, want true, nil", got, err)
	}

	if _, err := GetBoolParam(map[string]interface{}{"include_running": 7}, "include_running", false); err == nil {
		t.Error("GetBoolParam() should reject numeric value")
	}
}

func TestGetFloatParam(t *testing.T) {
	got, err := GetFloatParam(map[string]interface{}{"threshold": 0.4}, "threshold", false, 0.3)
	if err != nil || got != 0.4 {
		t.Errorf("GetFloatParam() = %v, %v, want 0.4, nil", got, err)
	}

	got, err = GetFloatParam(map[string]interface{}{}, "threshold", false, 0.3)
	if err != nil || got != 0.3 {
		t.Errorf("GetFloatParam() fallback = %v, %v, want 0.3, nil", got, err)
	}
}

func TestGetStringArrayParam(t *testing.T) {
	got, err := GetStringArrayParam(map[string]interface{}{
		"status": []interface{}{"SUCCEEDED", "FAILED"},
	}, "status", false)
	if err != nil {
		t.Fatalf("GetStringArrayParam() error = %v", err)
	}
	if len(got) != 2 || got[0] != "SUCCEEDED" || got[1] != "FAILED" {
		t.Errorf("GetStringArrayParam() = %v", got)
	}

	got, err = GetStringArrayParam(map[string]interface{}{}, "status", false)
	if err != nil || got != nil {
		t.Errorf("GetStringArrayParam() absent = %v, %v, want nil, nil", got, err)
	}

	if _, err := GetStringArrayParam(map[string]interface{}{
		"status": []interface{}{"SUCCEEDED", 3},
	}, "status", false); err == nil {
		t.Error("GetStringArrayParam() should reject mixed element types")
	}
}
