package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileOverlay holds the non-secret settings that may live in a YAML file.
type fileOverlay struct {
	Env                  string   `yaml:"env"`
	Port                 string   `yaml:"port"`
	CORSAllowOrigins     []string `yaml:"cors_allow_origins"`
	ObjectStore          string   `yaml:"object_store"`
	LocalStoreDir        string   `yaml:"local_store_dir"`
	AWSRegion            string   `yaml:"aws_region"`
	S3Bucket             string   `yaml:"s3_bucket"`
	S3Prefix             string   `yaml:"s3_prefix"`
	UploadsBucket        string   `yaml:"uploads_bucket"`
	UploadsPrefix        string   `yaml:"uploads_prefix"`
	AdminEmails          []string `yaml:"admin_emails"`
	GoogleRedirectURL    string   `yaml:"google_redirect_url"`
	UIRedirectURL        string   `yaml:"ui_redirect_url"`
	FormsURL             string   `yaml:"forms_url"`
	StripePublishableKey string   `yaml:"stripe_publishable_key"`
	CheckoutSuccessURL   string   `yaml:"checkout_success_url"`
	CheckoutCancelURL    string   `yaml:"checkout_cancel_url"`
	RedisAddr            string   `yaml:"redis_addr"`
	DashboardLoadTimeout string   `yaml:"dashboard_load_timeout"`
	SupportPhone         string   `yaml:"support_phone"`
}

// loadFileOverlay decodes the YAML config file at path. An empty path yields
// an empty overlay.
func loadFileOverlay(path string) (fileOverlay, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return fileOverlay{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fileOverlay{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out fileOverlay
	if err := yaml.NewDecoder(f).Decode(&out); err != nil {
		return fileOverlay{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
