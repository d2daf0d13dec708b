package form

import "testing"

func TestButton(t *testing.T) {
	tests := []struct {
		name        string
		run         func(b *Button)
		wantState   ButtonState
		wantLabel   string
		wantError   bool
		wantWarning string
	}{
		{
			name:      "new button is idle",
			run:       func(b *Button) {},
			wantState: Idle,
			wantLabel: LabelIdle,
		},
		{
			name:      "success",
			run:       func(b *Button) { b.Start(); b.Succeed() },
			wantState: Success,
			wantLabel: LabelSuccess,
		},
		{
			name:      "default warning",
			run:       func(b *Button) { b.Warn("") },
			wantState: Warning,
			wantLabel: LabelInvalidIdentifier,
		},
		{
			name:      "no platform keeps magic label",
			run:       func(b *Button) { b.Warn(LabelIdle) },
			wantState: Warning,
			wantLabel: LabelIdle,
		},
		{
			name:      "error shows container",
			run:       func(b *Button) { b.Start(); b.Fail() },
			wantState: Error,
			wantLabel: LabelError,
			wantError: true,
		},
		{
			name:      "success after error hides container",
			run:       func(b *Button) { b.Fail(); b.Start(); b.Succeed() },
			wantState: Success,
			wantLabel: LabelSuccess,
		},
		{
			name: "inventory warning survives success",
			run: func(b *Button) {
				b.Start()
				b.InventoryWarning("already there")
				b.Succeed()
			},
			wantState:   Warning,
			wantLabel:   LabelInventoryWarning,
			wantWarning: "already there",
		},
		{
			name:      "empty inventory warning is hidden",
			run:       func(b *Button) { b.Start(); b.InventoryWarning(""); b.Succeed() },
			wantState: Success,
			wantLabel: LabelSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewButton()
			tt.run(b)
			if b.State != tt.wantState {
				t.Errorf("State = %v, want %v", b.State, tt.wantState)
			}
			if b.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", b.Label, tt.wantLabel)
			}
			if b.ErrorVisible != tt.wantError {
				t.Errorf("ErrorVisible = %v, want %v", b.ErrorVisible, tt.wantError)
			}
			if b.WarningText != tt.wantWarning {
				t.Errorf("WarningText = %q, want %q", b.WarningText, tt.wantWarning)
			}
		})
	}
}
