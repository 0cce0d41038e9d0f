package directory

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/teranos/typeahead/errors"
)

// DefaultSlashCommands are the commands available at the start of a message.
func DefaultSlashCommands() []SlashCommand {
	return []SlashCommand{
		{Name: "dark", Aliases: []string{"night"}, Info: "Switch to the dark theme"},
		{Name: "light", Aliases: []string{"day"}, Info: "Switch to light theme"},
		{Name: "fixed-width", Info: "Switch to fixed width mode"},
		{Name: "fluid-width", Info: "Switch to fluid width mode"},
		{Name: "me", Info: "Action message", Placeholder: "is excited"},
		{Name: "poll", Info: "Create a poll", Placeholder: "Question"},
		{Name: "todo", Info: "Create a collaborative to-do list", Placeholder: "Task list"},
	}
}

// DefaultLanguages lists code block languages by popularity.
func DefaultLanguages() []Language {
	return []Language{
		{Name: "python", Priority: 40, Aliases: []string{"py", "python3"}},
		{Name: "javascript", Priority: 39, Aliases: []string{"js"}},
		{Name: "java", Priority: 38},
		{Name: "go", Priority: 37, Aliases: []string{"golang"}},
		{Name: "typescript", Priority: 36, Aliases: []string{"ts"}},
		{Name: "shell", Priority: 35, Aliases: []string{"sh", "bash", "zsh"}},
		{Name: "sql", Priority: 34},
		{Name: "c", Priority: 33, Aliases: []string{"h"}},
		{Name: "c++", Priority: 32, Aliases: []string{"cpp", "hpp", "cc"}},
		{Name: "c#", Priority: 31, Aliases: []string{"csharp", "cs"}},
		{Name: "rust", Priority: 30, Aliases: []string{"rs"}},
		{Name: "ruby", Priority: 29, Aliases: []string{"rb"}},
		{Name: "php", Priority: 28},
		{Name: "kotlin", Priority: 27, Aliases: []string{"kt"}},
		{Name: "swift", Priority: 26},
		{Name: "html", Priority: 25, Aliases: []string{"xhtml"}},
		{Name: "css", Priority: 24},
		{Name: "json", Priority: 23},
		{Name: "yaml", Priority: 22, Aliases: []string{"yml"}},
		{Name: "toml", Priority: 21},
		{Name: "markdown", Priority: 20, Aliases: []string{"md"}},
		{Name: "haskell", Priority: 19, Aliases: []string{"hs"}},
		{Name: "scala", Priority: 18},
		{Name: "perl", Priority: 17, Aliases: []string{"pl"}},
		{Name: "r", Priority: 16},
		{Name: "lua", Priority: 15},
		{Name: "dockerfile", Priority: 14, Aliases: []string{"docker"}},
		{Name: "diff", Priority: 13, Aliases: []string{"patch"}},
		{Name: "text", Priority: 12, Aliases: []string{"plaintext", "txt"}},
		{Name: "math", Priority: 11, Aliases: []string{"latex", "tex"}},
		{Name: "quote", Priority: 10},
		{Name: "spoiler", Priority: 9},
	}
}

// Registry is the on-disk override file for slash commands and languages.
//
//	[[command]]
//	name = "giphy"
//	info = "Search for a GIF"
//
//	[[language]]
//	name = "elixir"
//	priority = 50
//	aliases = ["ex"]
type Registry struct {
	Commands  []SlashCommand `toml:"command"`
	Languages []Language     `toml:"language"`
}

// LoadRegistry reads a registry file and merges it over the defaults.
// Entries with an existing name replace the default entry.
func LoadRegistry(path string) ([]SlashCommand, []Language, error) {
	commands, languages := DefaultSlashCommands(), DefaultLanguages()
	if path == "" {
		return commands, languages, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read registry %s", path)
	}

	var reg Registry
	md, err := toml.Decode(string(data), &reg)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse registry %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, nil, errors.WithHintf(
			errors.Newf("unknown registry key %q in %s", undecoded[0].String(), path),
			"registry files accept [[command]] and [[language]] tables only")
	}

	for _, c := range reg.Commands {
		if c.Name == "" {
			return nil, nil, errors.Newf("registry %s: command without name", path)
		}
		commands = mergeCommand(commands, c)
	}
	for _, l := range reg.Languages {
		if l.Name == "" {
			return nil, nil, errors.Newf("registry %s: language without name", path)
		}
		languages = mergeLanguage(languages, l)
	}
	return commands, languages, nil
}

func mergeCommand(commands []SlashCommand, c SlashCommand) []SlashCommand {
	for i := range commands {
		if commands[i].Name == c.Name {
			commands[i] = c
			return commands
		}
	}
	return append(commands, c)
}

func mergeLanguage(languages []Language, l Language) []Language {
	for i := range languages {
		if languages[i].Name == l.Name {
			languages[i] = l
			return languages
		}
	}
	return append(languages, l)
}
