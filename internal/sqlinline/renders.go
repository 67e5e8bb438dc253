package sqlinline

const QInsertRender = `--sql 58d1f4a6-2e83-49c0-b7d9-1c65f82a30e4
insert into renders(id, job_id, variant, render_asset_id, selected, caption, created_at)
values (gen_random_uuid(), $1::uuid, $2::int, $3::uuid, false, nullif($4::text, ''), now())
returning id;
`
