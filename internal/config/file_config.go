package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional config.yaml overlay stored in the data folder.
type File struct {
	APIBaseURL string `yaml:"api_url"`
	AppName    string `yaml:"app_name"`
	DataFolder string `yaml:"data_folder"`
	LogLevel   string `yaml:"log_level"`
}

// LoadFile reads the overlay file. A missing file is not an error, the
// returned File is simply empty.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return &File{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return &File{}, err
	}
	return &f, nil
}
