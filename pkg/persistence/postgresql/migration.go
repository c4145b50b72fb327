package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflow_instances table
			CREATE TABLE workflow_instances (
				id VARCHAR(64) PRIMARY KEY,
				template_id VARCHAR(255) NOT NULL,
				template_name VARCHAR(255) NOT NULL,
				vehicle_id VARCHAR(255),
				owner_id VARCHAR(255),
				trigger_data JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(32) NOT NULL CHECK (status IN ('pending', 'running', 'paused', 'completed', 'failed', 'cancelled')),
				current_step INT NOT NULL DEFAULT 0,
				total_steps INT NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				execution_log JSONB NOT NULL DEFAULT '[]',
				next_scheduled_step JSONB,
				error_message TEXT
			);

			CREATE INDEX idx_workflow_instances_status ON workflow_instances(status);
			CREATE INDEX idx_workflow_instances_template_id ON workflow_instances(template_id);
			CREATE INDEX idx_workflow_instances_vehicle_id ON workflow_instances(vehicle_id);
			CREATE INDEX idx_workflow_instances_started_at ON workflow_instances(started_at);
		`,
		2: `
			-- Migration 2: resume/pause/cancel bookkeeping
			ALTER TABLE workflow_instances
				ADD COLUMN resumed_at TIMESTAMP WITH TIME ZONE,
				ADD COLUMN cancelled_at TIMESTAMP WITH TIME ZONE,
				ADD COLUMN next_scheduled_for TIMESTAMP WITH TIME ZONE;

			CREATE INDEX idx_workflow_instances_next_scheduled_for
				ON workflow_instances(next_scheduled_for)
				WHERE next_scheduled_for IS NOT NULL;
		`,
	}
}
