package mediaurl

import "testing"

func TestPublicImageURL(t *testing.T) {
	got := PublicImageURL("https://videoindex.app", "/home/azureuser/recallstore/recall-api/../recallhq/images/kb1.png")
	want := "https://videoindex.app/images/kb1.png"
	if got != want {
		t.Errorf("PublicImageURL = %q, want %q", got, want)
	}
}

func TestPublicImageURL_NoPrefix(t *testing.T) {
	got := PublicImageURL("https://videoindex.app/", "images/kb1.png")
	want := "https://videoindex.app/images/kb1.png"
	if got != want {
		t.Errorf("PublicImageURL = %q, want %q", got, want)
	}
}

func TestPublicVideoURL(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "server path",
			path: "/home/azureuser/recallstore/recallhq/temp/kb42/lecture.mp4",
			want: "https://videoindex.app/kb42/lecture.mp4",
		},
		{
			name: "relative temp path",
			path: "some/prefix/recallhq/temp/intro.mp4",
			want: "https://videoindex.app/intro.mp4",
		},
		{
			name: "empty path falls back to base",
			path: "",
			want: "https://videoindex.app",
		},
		{
			name: "path without temp prefix kept as-is",
			path: "videos/raw.mp4",
			want: "https://videoindex.app/videos/raw.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PublicVideoURL("https://videoindex.app", tt.path)
			if got != tt.want {
				t.Errorf("PublicVideoURL(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
