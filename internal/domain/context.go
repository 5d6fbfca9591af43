package domain

// PromptContext is the environmental snapshot sent with completion-service
// requests and consulted by interpreter rule generators.
type PromptContext struct {
	WorkingDir     string      `json:"working_dir"`
	Shell          string      `json:"shell,omitempty"`
	OS             string      `json:"os,omitempty"`
	ProjectType    string      `json:"project_type,omitempty"`
	PackageManager string      `json:"package_manager,omitempty"`
	GitBranch      string      `json:"git_branch,omitempty"`
	GitDirty       bool        `json:"git_dirty,omitempty"`
	RecentCommands []string    `json:"recent_commands,omitempty"`
	Preferences    Preferences `json:"preferences"`
}
