package macsign

import (
	"fmt"
	"os"
	"time"

	"go.mozilla.org/pkcs7"
	"howett.net/plist"
)

// ProvisioningProfile represents a parsed .provisionprofile file.
type ProvisioningProfile struct {
	Name                        string                 `plist:"Name"`
	TeamName                    string                 `plist:"TeamName"`
	TeamIdentifier              []string               `plist:"TeamIdentifier"`
	AppIDName                   string                 `plist:"AppIDName"`
	ApplicationIdentifierPrefix []string               `plist:"ApplicationIdentifierPrefix"`
	Entitlements                map[string]interface{} `plist:"Entitlements"`
	ProvisionedDevices          []string               `plist:"ProvisionedDevices"`
	ProvisionsAllDevices        bool                   `plist:"ProvisionsAllDevices"`
	CreationDate                time.Time              `plist:"CreationDate"`
	ExpirationDate              time.Time              `plist:"ExpirationDate"`
	UUID                        string                 `plist:"UUID"`
	Platform                    []string               `plist:"Platform"`

	// Raw holds the original CMS bytes so the profile can be embedded into a
	// bundle verbatim.
	Raw []byte `plist:"-"`
}

// ParseProvisioningProfile parses a .provisionprofile file. The file is a
// CMS (PKCS#7) signed container with a plist payload.
func ParseProvisioningProfile(data []byte) (*ProvisioningProfile, error) {
	p7, err := pkcs7.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#7 container: %w", err)
	}

	var profile ProvisioningProfile
	if _, err := plist.Unmarshal(p7.Content, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse provisioning profile plist: %w", err)
	}
	profile.Raw = data

	return &profile, nil
}

// LoadProvisioningProfile reads and parses a .provisionprofile file from disk.
func LoadProvisioningProfile(path string) (*ProvisioningProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provisioning profile: %w", err)
	}
	return ParseProvisioningProfile(data)
}

// TeamID returns the team identifier from the profile.
func (p *ProvisioningProfile) TeamID() string {
	if len(p.TeamIdentifier) > 0 {
		return p.TeamIdentifier[0]
	}
	if len(p.ApplicationIdentifierPrefix) > 0 {
		return p.ApplicationIdentifierPrefix[0]
	}
	return ""
}

// IsExpired checks if the provisioning profile has expired.
func (p *ProvisioningProfile) IsExpired() bool {
	return time.Now().After(p.ExpirationDate)
}

// Type classifies the profile as development or distribution. Development
// profiles carry get-task-allow or an explicit device list; distribution
// profiles carry neither.
func (p *ProvisioningProfile) Type() SigningType {
	if allow, ok := p.Entitlements["get-task-allow"].(bool); ok && allow {
		return TypeDevelopment
	}
	if len(p.ProvisionedDevices) > 0 && !p.ProvisionsAllDevices {
		return TypeDevelopment
	}
	return TypeDistribution
}
