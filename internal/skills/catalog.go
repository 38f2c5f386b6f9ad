package skills

// Skill is a named competency in the prerequisite graph.
type Skill struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	EstimatedDays int    `json:"estimated_days"`
}

// Edge is a directed prerequisite relation: Prerequisite should be
// learned before Dependent.
type Edge struct {
	Prerequisite string `json:"prerequisite"`
	Dependent    string `json:"dependent"`
}

// defaultEstimatedDays is used for skills outside the catalog.
const defaultEstimatedDays = 14

// Catalog returns the built-in skill catalog. It doubles as the seed data
// for the SQLite graph store and as the planner's fallback when the store
// is unreachable.
func Catalog() []Skill {
	return []Skill{
		// Languages
		{Name: "Python", Category: "language", EstimatedDays: 7},
		{Name: "JavaScript", Category: "language", EstimatedDays: 7},
		{Name: "Java", Category: "language", EstimatedDays: 10},
		{Name: "Go", Category: "language", EstimatedDays: 10},
		{Name: "TypeScript", Category: "language", EstimatedDays: 7},
		// Data foundations
		{Name: "SQL", Category: "data", EstimatedDays: 5},
		{Name: "PostgreSQL", Category: "data", EstimatedDays: 5},
		{Name: "MongoDB", Category: "data", EstimatedDays: 5},
		{Name: "Redis", Category: "data", EstimatedDays: 4},
		// Tools
		{Name: "Git", Category: "tool", EstimatedDays: 3},
		// Operations
		{Name: "Linux", Category: "operations", EstimatedDays: 5},
		{Name: "Nginx", Category: "operations", EstimatedDays: 3},
		// Frontend
		{Name: "HTML/CSS", Category: "frontend", EstimatedDays: 5},
		{Name: "React", Category: "frontend", EstimatedDays: 10},
		// Runtimes / Frameworks
		{Name: "Node.js", Category: "runtime", EstimatedDays: 7},
		{Name: "Django", Category: "framework", EstimatedDays: 7},
		{Name: "FastAPI", Category: "framework", EstimatedDays: 5},
		{Name: "Spring Boot", Category: "framework", EstimatedDays: 10},
		// Architecture
		{Name: "REST APIs", Category: "architecture", EstimatedDays: 4},
		{Name: "GraphQL", Category: "architecture", EstimatedDays: 5},
		{Name: "Microservices", Category: "architecture", EstimatedDays: 10},
		{Name: "System Design", Category: "architecture", EstimatedDays: 14},
		// DevOps
		{Name: "Docker", Category: "devops", EstimatedDays: 5},
		{Name: "Kubernetes", Category: "devops", EstimatedDays: 7},
		{Name: "CI/CD", Category: "devops", EstimatedDays: 5},
		{Name: "Terraform", Category: "devops", EstimatedDays: 7},
		// Cloud
		{Name: "AWS", Category: "cloud", EstimatedDays: 10},
		{Name: "GCP", Category: "cloud", EstimatedDays: 10},
		{Name: "Azure", Category: "cloud", EstimatedDays: 10},
		// Data engineering
		{Name: "Kafka", Category: "data", EstimatedDays: 7},
		{Name: "Spark", Category: "data", EstimatedDays: 10},
		{Name: "Airflow", Category: "data", EstimatedDays: 7},
	}
}

// CatalogEdges returns the built-in prerequisite edges.
// Direction: (prerequisite) -> (dependent).
func CatalogEdges() []Edge {
	return []Edge{
		// Language -> framework chains
		{"JavaScript", "TypeScript"},
		{"JavaScript", "React"},
		{"JavaScript", "Node.js"},
		{"HTML/CSS", "React"},
		{"Python", "Django"},
		{"Python", "FastAPI"},
		{"Java", "Spring Boot"},
		// SQL -> database chains
		{"SQL", "PostgreSQL"},
		{"SQL", "MongoDB"},
		{"SQL", "Redis"},
		// API layer
		{"REST APIs", "FastAPI"},
		{"REST APIs", "GraphQL"},
		{"REST APIs", "Microservices"},
		// Linux -> infrastructure
		{"Linux", "Docker"},
		{"Linux", "AWS"},
		{"Linux", "GCP"},
		{"Linux", "Azure"},
		{"Linux", "Nginx"},
		// DevOps chains
		{"Docker", "Kubernetes"},
		{"Docker", "CI/CD"},
		{"Docker", "Microservices"},
		{"Git", "CI/CD"},
		{"AWS", "Terraform"},
		// Data engineering
		{"Python", "Spark"},
		{"SQL", "Spark"},
		{"Python", "Airflow"},
		{"SQL", "Airflow"},
		{"Python", "Kafka"},
		// Advanced patterns
		{"Microservices", "System Design"},
		{"SQL", "System Design"},
	}
}
