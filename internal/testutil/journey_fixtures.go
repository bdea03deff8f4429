package testutil

// Journey document fixtures for the engine, session, export and TUI tests.

// SampleJourneyJSON is a five-node home purchase journey. Levels:
// budget 0, emergency 1, credit 1, savings 2, mortgage 3. Only budget carries
// an explicit position.
var SampleJourneyJSON = `{
  "journey_id": "home-2027",
  "title": "Buy a first apartment",
  "description": "From a monthly budget to a signed mortgage",
  "category": "housing",
  "theme": {
    "style": "calm",
    "colors": {"primary": "#2563EB"}
  },
  "goal": {
    "title": "Down payment",
    "target_value": 2000000,
    "current_value": 120000,
    "unit": "KZT",
    "deadline": "2027-06-01"
  },
  "progress": {"overall_percent": 0},
  "nodes": [
    {
      "id": "budget",
      "title": "Build a monthly budget",
      "type": "milestone",
      "icon": "ledger",
      "position": {"x": -120, "y": 0},
      "status": "completed",
      "priority": "high",
      "subnodes": [
        {"id": "budget.track", "title": "Track expenses for a month", "type": "task", "status": "completed"}
      ]
    },
    {
      "id": "emergency",
      "title": "Emergency fund",
      "type": "milestone",
      "status": "unlocked",
      "priority": "high",
      "estimates": {"eta_days": 60, "effort_hours": 4},
      "progress": {"target_value": 300000, "current_value": 120000, "percent": 40},
      "dependencies": ["budget"],
      "ai_hints": {
        "advice": ["Keep three months of expenses liquid"],
        "risk_notes": "Do not invest the emergency fund"
      }
    },
    {
      "id": "credit",
      "title": "Improve credit score",
      "type": "challenge",
      "status": "in_progress",
      "priority": "medium",
      "estimates": {"eta_days": 90},
      "dependencies": ["budget"],
      "subnodes": [
        {"id": "credit.report", "title": "Pull a credit report", "type": "task", "status": "completed"},
        {"id": "credit.autopay", "title": "Enable autopay on cards", "type": "task", "status": "unlocked",
         "suggested_action": {"action": "autopay", "amount": 15000}},
        {"id": "credit.docs", "title": "Upload income statement", "type": "task", "status": "unlocked",
         "suggested_action": {"action": "upload_docs", "kind": "income"}}
      ]
    },
    {
      "id": "savings",
      "title": "Save the down payment",
      "type": "milestone",
      "status": "locked",
      "priority": "high",
      "estimates": {"eta_days": 365},
      "progress": {"target_value": 2000000, "current_value": 0, "percent": 0},
      "dependencies": ["emergency", "credit"],
      "rewards": [{"id": "r.saver", "title": "Saver", "type": "badge"}]
    },
    {
      "id": "mortgage",
      "title": "Apply for a mortgage",
      "type": "task",
      "status": "locked",
      "priority": "high",
      "dependencies": ["savings"],
      "subnodes": [
        {"id": "mortgage.calc", "title": "Check affordability", "type": "learning", "status": "locked",
         "suggested_action": {"action": "calc_affordability", "income": 650000, "term_years": 20}}
      ]
    }
  ],
  "connections": [
    {"id": "c1", "from": "budget", "to": "emergency", "type": "curved"},
    {"id": "c2", "from": "budget", "to": "credit", "type": "curved"},
    {"id": "c3", "from": "emergency", "to": "savings", "type": "direct"},
    {"id": "c4", "from": "credit", "to": "savings", "type": "direct"},
    {"id": "c5", "from": "savings", "to": "mortgage", "type": "conditional", "condition": "down payment saved"}
  ],
  "rewards": [
    {"id": "r.home", "title": "Homeowner", "type": "badge"},
    {"id": "r.cashback", "title": "Mortgage cashback", "type": "cashback", "value": 50000}
  ],
  "ai_guides": {
    "persona": "coach",
    "language": "en",
    "max_suggestions_per_day": 3,
    "advice_templates": {
      "save_small": "Add {amount}% to {node_title} and reach {percent}%"
    }
  }
}`

// SampleJourneyYAML is a two-node journey in YAML form.
var SampleJourneyYAML = `journey_id: cushion
title: Build a cushion
nodes:
  - id: open
    title: Open a savings account
    status: unlocked
    priority: high
    subnodes:
      - id: open.transfer
        title: First transfer
        status: unlocked
        suggested_action:
          action: transfer
          amount: 10000
          to: savings
  - id: fill
    title: Fill the cushion
    status: locked
    dependencies: [open]
    progress:
      target_value: 100000
      current_value: 0
connections:
  - id: c1
    from: open
    to: fill
`

// CyclicJourneyJSON has a dependency loop a -> b -> c -> a and a self loop on d.
var CyclicJourneyJSON = `{
  "journey_id": "loop",
  "title": "Broken plan",
  "nodes": [
    {"id": "a", "title": "A", "status": "unlocked", "dependencies": ["c"]},
    {"id": "b", "title": "B", "dependencies": ["a"]},
    {"id": "c", "title": "C", "dependencies": ["b"]},
    {"id": "d", "title": "D", "dependencies": ["d"]},
    {"id": "e", "title": "E"}
  ]
}`

// InvalidJourneyJSON violates several structural rules at once.
var InvalidJourneyJSON = `{
  "journey_id": "",
  "title": "Invalid",
  "nodes": [
    {"id": "x", "title": "X", "status": "done"},
    {"id": "x", "title": "X again", "priority": "urgent"},
    {"id": "y", "title": "", "dependencies": ["ghost"]}
  ],
  "connections": [
    {"id": "c1", "from": "x", "to": "nowhere"}
  ]
}`

// ChatHistoryJSON is a sample GET /get-chat response.
var ChatHistoryJSON = `{
  "id": "42",
  "data": {
    "messages": [
      {"id": "m1", "role": "user", "content": "How much should I save?", "createdAt": "2026-03-01T09:05:00Z"},
      {"id": "m2", "role": "assistant", "content": "Start with 10% of income."},
      {"content": "Anything else?"}
    ]
  }
}`
