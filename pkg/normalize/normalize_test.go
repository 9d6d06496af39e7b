// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package normalize

import "testing"

func TestSlug(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Hello", want: "hello"},
		{in: "Daily Notes/2024-11-07 Thursday", want: "daily-notes-2024-11-07-thursday"},
		{in: "  leading and trailing  ", want: "leading-and-trailing"},
		{in: "foo--bar", want: "foo-bar"},
		{in: "Café", want: "cafe"},
		{in: "ALEX CIPHER", want: "alex-cipher"},
		{in: "#tag/subtag", want: "tag-subtag"},
		{in: "über", want: "uber"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slug(tc.in); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugIdempotent(t *testing.T) {
	inputs := []string{"Hello World", "über-Straße", "foo--bar", "", "  ", "Alex Cipher, PhD"}
	for _, in := range inputs {
		once := Slug(in)
		twice := Slug(once)
		if once != twice {
			t.Errorf("Slug not idempotent for %q: Slug(x)=%q Slug(Slug(x))=%q", in, once, twice)
		}
	}
}

func TestSlugGrammar(t *testing.T) {
	for _, in := range []string{"Hello, World!", "a.b.c", "___", "-", "日本語"} {
		got := Slug(in)
		for i, r := range got {
			isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			if !isAlnum && r != '-' {
				t.Fatalf("Slug(%q) = %q contains disallowed rune %q at %d", in, got, r, i)
			}
			if r == '-' && (i == 0 || i == len(got)-1) {
				t.Fatalf("Slug(%q) = %q has a leading/trailing hyphen", in, got)
			}
		}
	}
}

func TestPath(t *testing.T) {
	if got, want := Path("Daily Notes/2024-11-07 Thursday"), "daily-notes/2024-11-07-thursday"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if got, want := Path("#tag/subtag"), "tag/subtag"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
