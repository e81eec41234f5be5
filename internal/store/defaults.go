package store

import "github.com/mesh-intelligence/brm/pkg/types"

// DefaultCategories returns the built-in category table used until the
// user saves one of their own.
func DefaultCategories(lastUpdated string) *types.CategoryDefinitions {
	return &types.CategoryDefinitions{
		Categories: []types.CategoryDefinition{
			{
				ID:          types.CategoryGeneral,
				Name:        "General",
				Description: ptr("Basic project information"),
				Icon:        ptr("InfoCircleOutlined"),
				Color:       ptr("#1890ff"),
				IsDefault:   ptr(true),
				FileName:    ptr("project_general.yml"),
				VariableDefinitions: []types.VariableDefinition{
					variable(types.VarProjectName, "The name of your project", ""),
					variable(types.VarActiveProjectName, "The name of the active project (legacy compatibility)", ""),
					variable(types.VarProjectDescription, "A brief description of the project", ""),
				},
			},
			{
				ID:          types.CategoryDevelopment,
				Name:        "Development",
				Description: ptr("Development-related variables"),
				Icon:        ptr("CodeOutlined"),
				Color:       ptr("#52c41a"),
				IsDefault:   ptr(true),
				FileName:    ptr("project_development.yml"),
				VariableDefinitions: []types.VariableDefinition{
					variable(types.VarTechStack, "Technology stack used", "TypeScript"),
					variable(types.VarActiveProjectStack, "Technology stack (legacy compatibility)", "TypeScript"),
					variable(types.VarDirectory, "Project directory path", ""),
					variable(types.VarActiveProjectDirectory, "Project directory (legacy compatibility)", ""),
					variable(types.VarRestartCommand, "Command to restart the project", "npm run dev"),
					variable(types.VarActiveProjectRestartCmd, "Restart command (legacy compatibility)", "npm run dev"),
					variable(types.VarLogCommand, "Command to view logs", "npm run logs"),
					variable(types.VarActiveProjectLogCmd, "Log command (legacy compatibility)", "npm run logs"),
				},
			},
		},
		LastUpdated: lastUpdated,
	}
}

// variable builds a definition whose display name is its id.
func variable(id, description, defaultValue string) types.VariableDefinition {
	v := types.VariableDefinition{
		ID:          id,
		Name:        id,
		Description: ptr(description),
		Required:    ptr(false),
	}
	if defaultValue != "" {
		v.DefaultValue = ptr(defaultValue)
	}
	return v
}

func ptr[T any](v T) *T {
	return &v
}
