package macsign

import (
	"testing"
	"time"
)

func TestProvisioningProfileTeamID(t *testing.T) {
	p := &ProvisioningProfile{TeamIdentifier: []string{"TEAM123456", "TEAM999999"}}
	if got := p.TeamID(); got != "TEAM123456" {
		t.Errorf("expected first team identifier, got %q", got)
	}

	p = &ProvisioningProfile{ApplicationIdentifierPrefix: []string{"PREFIX0000"}}
	if got := p.TeamID(); got != "PREFIX0000" {
		t.Errorf("expected fallback to application identifier prefix, got %q", got)
	}

	p = &ProvisioningProfile{}
	if got := p.TeamID(); got != "" {
		t.Errorf("expected empty team ID, got %q", got)
	}
}

func TestProvisioningProfileIsExpired(t *testing.T) {
	p := &ProvisioningProfile{ExpirationDate: time.Now().Add(time.Hour)}
	if p.IsExpired() {
		t.Error("future expiration should not be expired")
	}

	p = &ProvisioningProfile{ExpirationDate: time.Now().Add(-time.Hour)}
	if !p.IsExpired() {
		t.Error("past expiration should be expired")
	}
}

func TestProvisioningProfileType(t *testing.T) {
	tests := []struct {
		name    string
		profile ProvisioningProfile
		want    SigningType
	}{
		{
			name:    "plain distribution",
			profile: ProvisioningProfile{},
			want:    TypeDistribution,
		},
		{
			name: "get-task-allow marks development",
			profile: ProvisioningProfile{
				Entitlements: map[string]interface{}{"get-task-allow": true},
			},
			want: TypeDevelopment,
		},
		{
			name: "device list marks development",
			profile: ProvisioningProfile{
				ProvisionedDevices: []string{"00008030-000000000000000A"},
			},
			want: TypeDevelopment,
		},
		{
			name: "provisions all devices stays distribution",
			profile: ProvisioningProfile{
				ProvisionedDevices:   []string{"00008030-000000000000000A"},
				ProvisionsAllDevices: true,
			},
			want: TypeDistribution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Type(); got != tt.want {
				t.Errorf("Type() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseProvisioningProfileRejectsGarbage(t *testing.T) {
	if _, err := ParseProvisioningProfile([]byte("not a cms container")); err == nil {
		t.Fatal("expected error for non-PKCS#7 data")
	}
}
