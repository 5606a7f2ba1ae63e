package rp

import "fmt"

// ProjectScope addresses resources within one Report Portal project.
type ProjectScope struct {
	client      *Client
	projectName string
}

// Project returns a ProjectScope for the named project.
func (c *Client) Project(name string) *ProjectScope {
	return &ProjectScope{client: c, projectName: name}
}

func (p *ProjectScope) Launches() *LaunchScope { return &LaunchScope{project: p} }

func (p *ProjectScope) Items() *ItemScope { return &ItemScope{project: p} }

func (p *ProjectScope) Logs() *LogScope { return &LogScope{project: p} }

// url joins path onto the project's reporting API root.
func (p *ProjectScope) url(format string, args ...any) string {
	return fmt.Sprintf("%s/api/v1/%s", p.client.baseURL, p.projectName) + fmt.Sprintf(format, args...)
}
