package provider

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type cloudConfig struct {
	SSHPasswordAuth bool             `yaml:"ssh_pwauth"`
	Chpasswd        cloudConfigChpw  `yaml:"chpasswd"`
	Users           []cloudConfigUsr `yaml:"users,omitempty"`
}

type cloudConfigChpw struct {
	Expire bool             `yaml:"expire"`
	Users  []cloudConfigPwd `yaml:"users"`
}

type cloudConfigPwd struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Type     string `yaml:"type"`
}

type cloudConfigUsr struct {
	Name              string   `yaml:"name"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys,omitempty"`
}

// rootPasswordUserData renders cloud-config user data that sets the root
// password and, when given, authorized keys. Providers without a native
// root password field receive it this way.
func rootPasswordUserData(password string, authorizedKeys []string) (string, error) {
	cfg := cloudConfig{
		SSHPasswordAuth: true,
		Chpasswd: cloudConfigChpw{
			Expire: false,
			Users:  []cloudConfigPwd{{Name: "root", Password: password, Type: "text"}},
		},
	}
	if len(authorizedKeys) > 0 {
		cfg.Users = []cloudConfigUsr{{Name: "root", SSHAuthorizedKeys: authorizedKeys}}
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal cloud-config: %w", err)
	}
	return "#cloud-config\n" + string(out), nil
}
