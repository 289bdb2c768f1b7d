package csconfig

import "strings"

func isVarChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// expandEnv replaces $VAR and ${VAR} with the value returned by lookup.
// Unlike os.Expand, references to undefined variables are left untouched,
// so that a literal $ in a regular expression survives.
func expandEnv(s string, lookup func(string) (string, bool)) string {
	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}

		var name string

		end := i + 1

		if s[i+1] == '{' {
			closing := strings.IndexByte(s[i+2:], '}')
			if closing < 0 {
				sb.WriteByte(s[i])
				continue
			}

			name = s[i+2 : i+2+closing]
			end = i + 2 + closing + 1
		} else {
			for end < len(s) && isVarChar(s[end]) {
				end++
			}

			name = s[i+1 : end]
		}

		val, ok := lookup(name)
		if name == "" || !ok {
			sb.WriteByte(s[i])
			continue
		}

		sb.WriteString(val)

		i = end - 1
	}

	return sb.String()
}
