package errors

import "testing"

func TestValidateGameSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid slug", "skyrimspecialedition", false},
		{"valid with digits", "fallout4", false},
		{"empty", "", true},
		{"uppercase", "Skyrim", true},
		{"path traversal", "../mods", true},
		{"slash", "skyrim/mods", true},
		{"space", "new vegas", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGameSlug(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGameSlug(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateModID(t *testing.T) {
	if err := ValidateModID(3863); err != nil {
		t.Errorf("ValidateModID(3863) = %v, want nil", err)
	}
	if err := ValidateModID(0); err == nil {
		t.Error("ValidateModID(0) = nil, want error")
	}
	if err := ValidateModID(-5); err == nil {
		t.Error("ValidateModID(-5) = nil, want error")
	}
}

func TestValidateFileID(t *testing.T) {
	if err := ValidateFileID(0); err != nil {
		t.Errorf("ValidateFileID(0) = %v, want nil (means no specific file)", err)
	}
	if err := ValidateFileID(15037); err != nil {
		t.Errorf("ValidateFileID(15037) = %v, want nil", err)
	}
	if err := ValidateFileID(-1); err == nil {
		t.Error("ValidateFileID(-1) = nil, want error")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://www.example.com/download", false},
		{"http", "http://example.com", false},
		{"empty", "", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"file scheme", "file:///etc/passwd", true},
		{"control characters", "https://example.com/\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateArchiveName(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		wantErr bool
	}{
		{"typical archive", "SkyUI_5_1-3863-5-1.7z", false},
		{"empty", "", true},
		{"path separator", "sub/archive.zip", true},
		{"backslash", "sub\\archive.zip", true},
		{"traversal", "..archive.zip", true},
		{"null byte", "archive\x00.zip", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArchiveName(tt.archive)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArchiveName(%q) error = %v, wantErr %v", tt.archive, err, tt.wantErr)
			}
		})
	}
}
