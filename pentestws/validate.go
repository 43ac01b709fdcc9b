// SPDX-License-Identifier: MIT

package pentestws

import (
	"net/netip"
	"regexp"
	"strings"
)

// Resource IDs issued by the service are at least 8 alphanumerics.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9]{8,}$`)

const (
	reasonID       = "should be 8 alphanumeric characters"
	reasonRequired = "is required"
)

// validID reports whether s is a well-formed resource ID. Empty strings are
// allowed so optional ID fields validate before the service assigns one.
func validID(s string) bool {
	return s == "" || idPattern.MatchString(s)
}

// validTarget reports whether s parses as an IPv4 or IPv6 address.
func validTarget(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// blank reports whether s has no usable content.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// oneOf reports whether s is empty or contained in allowed.
func oneOf(s string, allowed []string) bool {
	if s == "" {
		return true
	}
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// Protocols lists the port protocols the service accepts.
var Protocols = []string{"tcp", "udp"}

// PortStatuses lists the triage statuses a port can carry.
var PortStatuses = []string{"Needs Review", "Vulnerable", "Checked", "Owned"}

// PortStates lists the nmap-style port states the service accepts.
var PortStates = []string{
	"open",
	"filtered",
	"closed",
	"unfiltered",
	"open|filtered",
	"closed|filtered",
}

// NotePageObjectTypes lists the parents a note page can attach to.
var NotePageObjectTypes = []string{"e", "hosts", "ports"}

// ScratchpadTypes lists the scratchpad content types.
var ScratchpadTypes = []string{"code", "rich"}

// ScratchpadLanguages lists the editor languages accepted for code
// scratchpads. The set is owned by the service's embedded editor.
var ScratchpadLanguages = []string{
	"abap", "abc", "actionscript", "ada", "apache_conf", "asciidoc", "asl",
	"assembly_x86", "autohotkey", "sh", "batchfile", "bro", "c_cpp", "csharp",
	"c9search", "cirru", "clojure", "cobol", "coffee", "coldfusion",
	"csound_orchestra", "csound_document", "csound_score", "css", "curly",
	"d", "dart", "diff", "django", "dockerfile", "dot", "drools", "edifact",
	"eiffel", "ejs", "elixir", "elm", "erlang", "forth", "fortran", "ftl",
	"fsharp", "gcode", "gherkin", "gitignore", "glsl", "golang", "gobstones",
	"graphqlschema", "groovy", "haml", "handlebars", "haskell",
	"haskell_cabal", "haxe", "hjson", "html", "html_elixir", "html_ruby",
	"ini", "io", "jack", "jade", "java", "javascript", "json", "jsoniq",
	"jsp", "jssm", "jsx", "julia", "kotlin", "latex", "less", "liquid",
	"lisp", "livescript", "logiql", "lsl", "lua", "luapage", "lucene",
	"makefile", "markdown", "mask", "matlab", "maze", "mel", "mixal",
	"mushcode", "mysql", "nix", "nsis", "objectivec", "ocaml", "pascal",
	"perl", "pgsql", "php", "php_laravel_blade", "pig", "plain_text",
	"powershell", "praat", "prolog", "properties", "protobuf", "puppet",
	"python", "r", "razor", "rdoc", "red", "rhtml", "rst", "ruby", "rust",
	"sass", "scad", "scala", "scheme", "scss", "sjs", "slim", "smarty",
	"snippets", "soy_template", "space", "sql", "sqlserver", "stylus", "svg",
	"swift", "tcl", "terraform", "tex", "text", "textile", "toml", "tsx",
	"twig", "typescript", "vala", "vbscript", "velocity", "verilog", "vhdl",
	"wollok", "xml", "xquery",
}
