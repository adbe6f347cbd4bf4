package store

import "portfolio-cli/internal/model"

const coverBaseURL = "https://cse-134b-hw5.vercel.app/media/projects/"

// DefaultProjects is the collection written on first run.
func DefaultProjects() []model.Project {
	return []model.Project{
		{
			Name:        "DevTerms",
			Description: "Online dictionary curated for developers",
			URL:         "https://devterms.com",
			Cover:       model.Cover{Base: coverBaseURL + "devterms.jpg", LG: coverBaseURL + "devterms-lg.jpg"},
		},
		{
			Name:        "Cobalt",
			Description: "Social media downloader extension for Raycast",
			URL:         "https://www.raycast.com/aelew/cobalt",
			Cover:       model.Cover{Base: coverBaseURL + "raycast-cobalt.jpg", LG: coverBaseURL + "raycast-cobalt-lg.jpg"},
		},
		{
			Name:        "Mailery",
			Description: "Cross-platform email client",
			URL:         "https://mailery.app",
			Cover:       model.Cover{Base: coverBaseURL + "mailery.jpg", LG: coverBaseURL + "mailery-lg.jpg"},
		},
		{
			Name:        "Tech Internship Alerts",
			Description: "Job listing and monitoring bot",
			URL:         "https://github.com/aelew/tech-internship-alerts",
			Cover:       model.Cover{Base: coverBaseURL + "tech-internship-alerts.jpg", LG: coverBaseURL + "tech-internship-alerts-lg.jpg"},
		},
	}
}
