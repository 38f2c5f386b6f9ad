package evidence

// Project is a portfolio project recommendation for one skill.
type Project struct {
	Skill          string   `json:"skill"`
	Title          string   `json:"project"`
	Description    string   `json:"description"`
	Deliverables   []string `json:"deliverables"`
	EstimatedWeeks int      `json:"estimated_weeks"`
}

// RubricCriterion is one weighted assessment dimension with per-level
// descriptions keyed "Excellent", "Good", "Needs Work".
type RubricCriterion struct {
	Name   string            `json:"name"`
	Weight int               `json:"weight"`
	Levels map[string]string `json:"levels"`
}

// Rubric is the assessment grid for one skill's portfolio project.
type Rubric struct {
	Skill       string            `json:"skill"`
	Criteria    []RubricCriterion `json:"criteria"`
	Scoring     map[string]string `json:"scoring"`
	TotalPoints int               `json:"total_points"`
}

// InterviewPrep bundles preparation material for one skill.
type InterviewPrep struct {
	Skill      string   `json:"skill"`
	Questions  []string `json:"questions"`
	Difficulty string   `json:"difficulty"`
	Tips       []string `json:"tips"`
}

// projectCatalog maps lowercase skill names to curated project templates.
var projectCatalog = map[string]Project{
	"python": {
		Title: "CLI Task Manager with SQLite",
		Description: "Build a command-line task management tool with persistence, " +
			"categories, priorities, and due dates using SQLite.",
		Deliverables:   []string{"cli.py", "models.py", "tests/", "README.md"},
		EstimatedWeeks: 1,
	},
	"docker": {
		Title: "Dockerize a FastAPI Application",
		Description: "Create a production-ready Docker setup for a FastAPI service " +
			"including environment configuration and health checks.",
		Deliverables:   []string{"Dockerfile", "docker-compose.yml", "README.md"},
		EstimatedWeeks: 1,
	},
	"kubernetes": {
		Title: "Deploy a Service to Kubernetes",
		Description: "Deploy a containerized FastAPI application to Kubernetes " +
			"using manifests for Deployment and Service.",
		Deliverables:   []string{"deployment.yaml", "service.yaml", "README.md"},
		EstimatedWeeks: 2,
	},
	"ci/cd": {
		Title: "Full CI/CD Pipeline with GitHub Actions",
		Description: "Build a pipeline that lints, tests, builds a Docker image, " +
			"and deploys to a staging environment automatically.",
		Deliverables:   []string{".github/workflows/ci.yml", ".github/workflows/deploy.yml", "README.md"},
		EstimatedWeeks: 2,
	},
	"rest apis": {
		Title: "RESTful Bookstore API",
		Description: "Build a complete REST API with authentication, pagination, " +
			"filtering, and OpenAPI documentation.",
		Deliverables:   []string{"app/", "tests/", "migrations/", "README.md"},
		EstimatedWeeks: 2,
	},
	"terraform": {
		Title: "Infrastructure as Code for a Web Stack",
		Description: "Provision a load-balanced web application with Terraform " +
			"modules, remote state, and environment workspaces.",
		Deliverables:   []string{"main.tf", "modules/", "environments/", "README.md"},
		EstimatedWeeks: 2,
	},
	"aws": {
		Title: "Serverless Image Processing Pipeline",
		Description: "Build an S3-triggered Lambda pipeline that resizes images " +
			"and stores metadata in DynamoDB.",
		Deliverables:   []string{"lambda/", "template.yaml", "README.md"},
		EstimatedWeeks: 2,
	},
}

// fallbackQuestions are curated interview questions used when the LLM is
// unavailable or returns garbage.
var fallbackQuestions = map[string][]string{
	"python": {
		"Explain the difference between a list and a tuple in Python.",
		"What are Python decorators and when would you use them?",
		"How does Python's garbage collector work?",
		"What is the GIL and how does it affect multithreading?",
		"Explain the difference between `deepcopy` and `copy`.",
	},
	"docker": {
		"What is the difference between a Docker image and a container?",
		"How would you reduce the size of a Docker image?",
		"Explain multi-stage builds and when you'd use them.",
		"What is the difference between CMD and ENTRYPOINT?",
		"How do you handle persistent data in Docker?",
	},
	"kubernetes": {
		"Explain the difference between a Deployment and a StatefulSet.",
		"How does Kubernetes service discovery work?",
		"What is the role of an Ingress controller?",
		"How would you debug a pod that keeps crashing?",
		"Explain the difference between a ConfigMap and a Secret.",
	},
	"ci/cd": {
		"What are the key stages of a CI/CD pipeline?",
		"How would you handle secrets in a CI/CD pipeline?",
		"Explain the difference between continuous delivery and continuous deployment.",
		"How do you implement rollback strategies?",
		"What testing strategies do you include in a pipeline?",
	},
	"aws": {
		"Explain the difference between EC2, ECS, and Lambda.",
		"When would you use S3 vs EBS vs EFS?",
		"How does IAM role-based access control work?",
		"What is a VPC and how do you design one?",
		"Explain the shared responsibility model.",
	},
	"terraform": {
		"What is the difference between Terraform state and plan?",
		"How do you manage Terraform state in a team?",
		"Explain Terraform modules and when to use them.",
		"What is the difference between count and for_each?",
		"How do you handle secrets in Terraform?",
	},
	"microservices": {
		"What are the pros and cons of microservices vs monoliths?",
		"How do you handle inter-service communication?",
		"Explain the saga pattern for distributed transactions.",
		"How do you implement service discovery?",
		"What is the circuit breaker pattern?",
	},
	"system design": {
		"How would you design a URL shortening service?",
		"Explain CAP theorem and its implications.",
		"How would you design a rate limiter?",
		"What strategies would you use for database scaling?",
		"How do you handle eventual consistency?",
	},
	"postgresql": {
		"What are PostgreSQL's advantages over MySQL?",
		"Explain JSONB support and when to use it.",
		"How do you optimize PostgreSQL query performance?",
		"What are CTEs and window functions?",
		"Explain PostgreSQL's MVCC concurrency model.",
	},
	"redis": {
		"What data structures does Redis support?",
		"Explain Redis persistence options (RDB vs AOF).",
		"How would you implement a distributed lock with Redis?",
		"What are Redis pub/sub use cases?",
		"How do you handle cache invalidation?",
	},
	"kafka": {
		"Explain Kafka's architecture (brokers, topics, partitions).",
		"What is the difference between at-most-once and exactly-once delivery?",
		"How do consumer groups work?",
		"What is the role of ZooKeeper in Kafka?",
		"How would you handle message ordering?",
	},
	"git": {
		"Explain the difference between merge and rebase.",
		"What is a Git stash and when would you use it?",
		"How do you resolve merge conflicts?",
		"Explain Git's branching strategies (GitFlow, trunk-based).",
		"What is the difference between reset and revert?",
	},
}

// rubricCatalog maps lowercase skill names to curated assessment criteria.
var rubricCatalog = map[string][]RubricCriterion{
	"python": {
		{Name: "Code Quality", Weight: 25, Levels: map[string]string{
			"Excellent":  "Clean, idiomatic Python following PEP 8. Uses type hints, meaningful variable names, and appropriate data structures.",
			"Good":       "Readable code with minor style inconsistencies. Some type hints.",
			"Needs Work": "Functional but hard to read. No type hints or documentation.",
		}},
		{Name: "Testing", Weight: 25, Levels: map[string]string{
			"Excellent":  "Comprehensive test suite with unit and integration tests. Edge cases covered.",
			"Good":       "Tests for main functionality. Some edge cases covered.",
			"Needs Work": "Few or no tests. No edge case coverage.",
		}},
		{Name: "Architecture", Weight: 25, Levels: map[string]string{
			"Excellent":  "Well-structured with clear separation of concerns. Easy to extend.",
			"Good":       "Reasonable structure with some modularity.",
			"Needs Work": "Monolithic code with mixed concerns.",
		}},
		{Name: "Documentation", Weight: 25, Levels: map[string]string{
			"Excellent":  "Clear README with setup instructions, usage examples, and architecture overview.",
			"Good":       "README with basic setup steps. Some docstrings.",
			"Needs Work": "Minimal or no documentation.",
		}},
	},
	"docker": {
		{Name: "Dockerfile Quality", Weight: 30, Levels: map[string]string{
			"Excellent":  "Multi-stage build, minimal image size, non-root user, proper layer caching, .dockerignore configured.",
			"Good":       "Working Dockerfile with reasonable layer ordering.",
			"Needs Work": "Large image, no caching optimization, runs as root.",
		}},
		{Name: "Compose Setup", Weight: 25, Levels: map[string]string{
			"Excellent":  "Services properly isolated, health checks, named volumes, environment variables externalized.",
			"Good":       "Working compose file with multiple services.",
			"Needs Work": "Hardcoded values, no health checks.",
		}},
		{Name: "Security", Weight: 25, Levels: map[string]string{
			"Excellent":  "Non-root user, secrets management, minimal base image, no sensitive data in image layers.",
			"Good":       "Some security considerations addressed.",
			"Needs Work": "Runs as root, secrets in Dockerfile.",
		}},
		{Name: "Documentation", Weight: 20, Levels: map[string]string{
			"Excellent":  "README with build/run instructions, architecture diagram, environment variable documentation.",
			"Good":       "Basic build and run instructions.",
			"Needs Work": "No documentation.",
		}},
	},
	"kubernetes": {
		{Name: "Manifest Quality", Weight: 30, Levels: map[string]string{
			"Excellent":  "Proper resource limits, liveness/readiness probes, pod disruption budgets, security contexts.",
			"Good":       "Working manifests with health checks.",
			"Needs Work": "Minimal manifests without health checks or limits.",
		}},
		{Name: "Scaling & Resilience", Weight: 25, Levels: map[string]string{
			"Excellent":  "HPA configured, pod anti-affinity, rolling update strategy, resource requests/limits properly tuned.",
			"Good":       "Basic HPA or replica count.",
			"Needs Work": "Single replica, no scaling consideration.",
		}},
		{Name: "Configuration Management", Weight: 25, Levels: map[string]string{
			"Excellent":  "ConfigMaps and Secrets properly used, Helm chart or Kustomize for environment management.",
			"Good":       "ConfigMaps used for basic configuration.",
			"Needs Work": "Hardcoded configuration values.",
		}},
		{Name: "Networking", Weight: 20, Levels: map[string]string{
			"Excellent":  "Ingress configured, NetworkPolicies defined, service mesh considerations.",
			"Good":       "Services and Ingress configured.",
			"Needs Work": "Only ClusterIP services.",
		}},
	},
	"ci/cd": {
		{Name: "Pipeline Design", Weight: 30, Levels: map[string]string{
			"Excellent":  "Multi-stage pipeline with lint, test, build, deploy stages. Proper parallelization and caching.",
			"Good":       "Pipeline with test and build stages.",
			"Needs Work": "Single-stage or manual deployment.",
		}},
		{Name: "Testing Integration", Weight: 25, Levels: map[string]string{
			"Excellent":  "Unit, integration, and e2e tests. Coverage reports. Fail-fast on test failures.",
			"Good":       "Automated tests run in pipeline.",
			"Needs Work": "No tests in pipeline.",
		}},
		{Name: "Security", Weight: 25, Levels: map[string]string{
			"Excellent":  "Secrets in vault/encrypted, dependency scanning, container image scanning.",
			"Good":       "Secrets stored in CI variables.",
			"Needs Work": "Secrets hardcoded or in plain text.",
		}},
		{Name: "Deployment Strategy", Weight: 20, Levels: map[string]string{
			"Excellent":  "Blue-green or canary deployment, rollback capability, environment promotion pipeline.",
			"Good":       "Automated deployment to one environment.",
			"Needs Work": "Manual deployment steps.",
		}},
	},
}

// advancedSkills and intermediateSkills drive the interview difficulty label.
var advancedSkills = map[string]struct{}{
	"system design": {}, "microservices": {}, "kubernetes": {}, "kafka": {}, "terraform": {},
}

var intermediateSkills = map[string]struct{}{
	"docker": {}, "aws": {}, "gcp": {}, "azure": {}, "ci/cd": {}, "graphql": {}, "redis": {},
}

// preparationTips maps lowercase skill names to study advice.
var preparationTips = map[string][]string{
	"system design": {
		"Practice drawing architecture diagrams",
		"Learn to estimate scale (users, QPS, storage)",
		"Study real-world systems (e.g., how Twitter/Netflix work)",
	},
	"microservices": {
		"Understand trade-offs vs monolithic architecture",
		"Study common patterns: saga, CQRS, event sourcing",
		"Be prepared to discuss service boundaries",
	},
	"kubernetes": {
		"Set up a local cluster with minikube or kind",
		"Practice writing YAML manifests from scratch",
		"Understand networking: Services, Ingress, NetworkPolicies",
	},
	"docker": {
		"Practice writing Dockerfiles without a reference",
		"Understand layers and caching",
		"Learn docker-compose for multi-container setups",
	},
}
