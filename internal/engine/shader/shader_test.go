package shader

import "testing"

func TestWithDefines(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		defines []string
		want    string
	}{
		{"none", "#version 410 core\nvoid main(){}", nil, "#version 410 core\nvoid main(){}"},
		{
			"after version",
			"#version 410 core\nvoid main(){}",
			[]string{"SKINNING", "MAX_JOINTS 64"},
			"#version 410 core\n#define SKINNING\n#define MAX_JOINTS 64\nvoid main(){}",
		},
		{
			"leading whitespace",
			"\n\t#version 410 core\nvoid main(){}",
			[]string{"FOG"},
			"\n\t#version 410 core\n#define FOG\nvoid main(){}",
		},
		{"no version", "void main(){}", []string{"FOG"}, "#define FOG\nvoid main(){}"},
		{"version only", "#version 410 core", []string{"FOG"}, "#version 410 core\n#define FOG\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithDefines(tt.src, tt.defines...); got != tt.want {
				t.Errorf("got\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
