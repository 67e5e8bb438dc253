package sqlinline

// QClaimNewestQueuedJob selects the most recently created queued job and
// flips it to processing in a single statement. The CTE with FOR UPDATE SKIP
// LOCKED makes the claim linearizable under concurrent orchestrators.
const QClaimNewestQueuedJob = `--sql 3b8f6c51-9d2e-4f7a-b1c4-8e0a52d47f19
with next_job as (
    select id
    from jobs
    where status = 'queued'
    order by created_at desc
    for update skip locked
    limit 1
),
claimed as (
    update jobs
    set status = 'processing', updated_at = now()
    where id in (select id from next_job)
    returning
      id,
      coalesce(product_asset_id::text, '') as product_asset_id,
      coalesce(scene_asset_id::text, '') as scene_asset_id,
      coalesce(style_key, '') as style_key,
      coalesce(palette, '{}'::text[]) as palette,
      meta,
      created_at
)
select * from claimed;
`

const QUpdateJobStatus = `--sql 6e4d0b92-17a3-4c58-9f6b-d2c81e35a740
update jobs
set status = $2::text,
    error_message = nullif($3::text, ''),
    updated_at = now()
where id = $1::uuid;
`
